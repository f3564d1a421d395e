// Package severity turns an analyzer's raw findings into a bounded,
// human-meaningful severity level with an explainable score.
package severity

import (
	"fmt"
	"math"

	"scanner111/src/signal"
)

// Level is a coarse human-facing severity classification.
type Level int

const (
	None Level = iota
	Info
	Warning
	Error
	Critical
)

func (l Level) String() string {
	switch l {
	case None:
		return "None"
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	case Critical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// LevelFromBase maps a raw base severity integer (as declared by an
// analyzer's pattern table) onto a Level.
func LevelFromBase(base int) Level {
	switch {
	case base <= 0:
		return None
	case base <= 2:
		return Info
	case base == 3:
		return Warning
	case base == 4:
		return Error
	default:
		return Critical
	}
}

// Factors are additive boosts applied on top of the base level weight and
// signal-match confidence. Each contributes at most 0.15 to the final score.
type Factors struct {
	IsDllCrash             bool
	IsRecurring            bool
	HasMultipleIndicators  bool
	AffectsGameStability   bool
	IsKnownCriticalPattern bool
}

func (f Factors) boost() float64 {
	var b float64
	const perFactor = 0.15
	if f.IsDllCrash {
		b += perFactor
	}
	if f.IsRecurring {
		b += perFactor
	}
	if f.HasMultipleIndicators {
		b += perFactor
	}
	if f.AffectsGameStability {
		b += perFactor
	}
	if f.IsKnownCriticalPattern {
		b += perFactor
	}
	return b
}

// Assessment is the outcome of scoring one analyzer finding.
type Assessment struct {
	Level          Level
	Score          float64
	WasEscalated   bool
	Explanation    string
}

// Calculate produces a bounded severity assessment from a base severity
// integer, a signal match result, and a set of contextual factors.
func Calculate(base int, match signal.Result, factors Factors) Assessment {
	baseLevelWeight := clamp01(float64(base) / 6.0)
	score := baseLevelWeight

	if match.IsMatch {
		score += 0.25 * match.Confidence
	}

	score += factors.boost()

	matchedSignals := len(match.MatchedSignals)
	score += 0.05 * float64(min(matchedSignals, 10))

	maxOccurrence := 0
	for _, m := range match.MatchedSignals {
		if m.Occurrences > maxOccurrence {
			maxOccurrence = m.Occurrences
		}
	}
	score += 0.02 * float64(min(maxOccurrence, 20))

	score = clamp01(score)

	level := levelFromScore(score)

	escalated := false
	var reason string
	switch {
	case factors.IsKnownCriticalPattern:
		escalated, reason = true, "known critical pattern"
	case match.RequiredTotal > 0 && match.RequiredMatches == match.RequiredTotal && match.Confidence >= 0.9:
		escalated, reason = true, "all required signals matched with confidence >= 0.9"
	case factors.IsRecurring && factors.AffectsGameStability:
		escalated, reason = true, "recurring crash affecting game stability"
	}

	if escalated {
		level = bumpLevel(level)
	}

	a := Assessment{Level: level, Score: score, WasEscalated: escalated}
	if escalated {
		a.Explanation = fmt.Sprintf("escalated: %s", reason)
	}
	return a
}

func levelFromScore(score float64) Level {
	switch {
	case score >= 0.8:
		return Critical
	case score >= 0.6:
		return Error
	case score >= 0.3:
		return Warning
	case score >= 0.1:
		return Info
	default:
		return None
	}
}

func bumpLevel(l Level) Level {
	if l >= Critical {
		return Critical
	}
	return l + 1
}

// CalculateCombined aggregates several assessments from different analyzers
// run against the same crash log into one overall score and level.
func CalculateCombined(assessments []Assessment) Assessment {
	if len(assessments) == 0 {
		return Assessment{Level: None}
	}

	var maxScore float64
	var criticalCount, errorCount int
	for _, a := range assessments {
		if a.Score > maxScore {
			maxScore = a.Score
		}
		switch a.Level {
		case Critical:
			criticalCount++
		case Error:
			errorCount++
		}
	}

	boost := 0.05 * float64(min(len(assessments)-1, 5))
	combined := clamp01(maxScore + boost)

	level := levelFromScore(combined)
	if criticalCount >= 2 {
		level = Critical
	} else if errorCount >= 3 && level < Error {
		level = Error
	}

	return Assessment{Level: level, Score: combined}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
