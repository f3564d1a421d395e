package signal

import (
	"fmt"
	"strconv"
	"strings"

	"scanner111/src/crashlog"
)

// Weights used to blend required/optional/stack satisfaction into a single
// confidence score. Required signals dominate; stack evidence is corroborating.
const (
	weightRequired = 0.5
	weightOptional = 0.3
	weightStack    = 0.2
)

// ParseError reports a malformed signal expression.
type ParseError struct {
	Expr   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("signal: invalid expression %q: %s", e.Expr, e.Reason)
}

// parsed is an internal representation of one signal expression after its
// prefix grammar has been decoded.
type parsed struct {
	raw            string
	typ            Type
	pattern        string
	minOccurrences int
	maxOccurrences int
}

// Parse decodes a single signal expression using the prefix grammar:
//
//	ME-REQ|<substr>   required match against the main error text
//	ME-OPT|<substr>   optional match against the main error text, boosts confidence
//	NOT|<substr>      negative match against main error or call stack text; any match disqualifies
//	N|<substr>        stack-frame pattern that must appear at least N times
//	N-M|<substr>      stack-frame pattern bounded to an [N, M] occurrence count
//	<substr>          bare pattern, a stack signal with an implicit threshold of 1
//
// Matching is case-insensitive substring search, consistent with how the
// source tool's signal lists are authored (plain fragments of known crash
// text, not full regular expressions). An empty pattern after the prefix is
// tolerated and simply never matches.
func Parse(expr string) (*parsed, error) {
	head, rest, hasPipe := strings.Cut(expr, "|")

	if hasPipe {
		switch strings.ToUpper(head) {
		case "ME-REQ":
			return &parsed{raw: expr, typ: Required, pattern: rest, minOccurrences: 1}, nil
		case "ME-OPT":
			return &parsed{raw: expr, typ: Optional, pattern: rest, minOccurrences: 1}, nil
		case "NOT":
			return &parsed{raw: expr, typ: Negative, pattern: rest, minOccurrences: 1}, nil
		}
	}

	if !hasPipe {
		// Bare pattern, no prefix at all: a stack signal with threshold >= 1.
		return &parsed{raw: expr, typ: Stack, pattern: expr, minOccurrences: 1}, nil
	}

	if min, max, ok := parseRange(head); ok {
		return &parsed{raw: expr, typ: Stack, pattern: rest, minOccurrences: min, maxOccurrences: max}, nil
	}

	return nil, &ParseError{Expr: expr, Reason: "unrecognized prefix"}
}

// parseRange decodes a stack-signal prefix of the form "N" or "N-M".
func parseRange(prefix string) (min, max int, ok bool) {
	if lo, hi, found := strings.Cut(prefix, "-"); found {
		min, err1 := strconv.Atoi(strings.TrimSpace(lo))
		max, err2 := strconv.Atoi(strings.TrimSpace(hi))
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return min, max, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(prefix))
	if err != nil {
		return 0, 0, false
	}
	return n, 0, true
}

// Evaluate matches a full signal list against a crash log and returns the
// blended result. Evaluation order matters: any satisfied NOT signal
// short-circuits the whole result to IsMatch=false before required/optional
// signals are even scored, matching the source tool's veto semantics.
func Evaluate(log *crashlog.CrashLog, exprs []string) (Result, error) {
	var signals []*parsed
	for _, e := range exprs {
		p, err := Parse(e)
		if err != nil {
			return Result{}, err
		}
		signals = append(signals, p)
	}

	mainErrorLower := strings.ToLower(log.MainError)
	stackText := stackText(log)

	var res Result

	// NOT signals first: short-circuit. A NOT pattern may appear in either
	// the main error text or the call stack.
	for _, s := range signals {
		if s.typ != Negative || s.pattern == "" {
			continue
		}
		lp := strings.ToLower(s.pattern)
		occ := strings.Count(mainErrorLower, lp) + strings.Count(stackText, lp)
		m := Match{Signal: s.raw, Pattern: s.pattern, Type: Negative, Location: MainError, Occurrences: occ, MinOccurrences: s.minOccurrences}
		if occ > 0 {
			res.IsMatch = false
			res.SkipReason = "Negative condition met"
			res.MatchedSignals = append(res.MatchedSignals, m)
			return res, nil
		}
	}

	for _, s := range signals {
		if s.pattern == "" {
			continue // empty pattern after prefix is ignored, not fatal
		}
		switch s.typ {
		case Required:
			res.RequiredTotal++
			occ := strings.Count(mainErrorLower, strings.ToLower(s.pattern))
			m := Match{Signal: s.raw, Pattern: s.pattern, Type: Required, Location: MainError, Occurrences: occ, MinOccurrences: s.minOccurrences}
			if m.matched() {
				res.RequiredMatches++
				res.MatchedSignals = append(res.MatchedSignals, m)
			}
		case Optional:
			res.OptionalTotal++
			occ := strings.Count(mainErrorLower, strings.ToLower(s.pattern))
			m := Match{Signal: s.raw, Pattern: s.pattern, Type: Optional, Location: MainError, Occurrences: occ, MinOccurrences: s.minOccurrences}
			if m.matched() {
				res.OptionalMatches++
				res.MatchedSignals = append(res.MatchedSignals, m)
			}
		case Stack:
			res.StackTotal++
			occ := strings.Count(stackText, strings.ToLower(s.pattern))
			m := Match{
				Signal: s.raw, Pattern: s.pattern, Type: Stack, Location: CallStack,
				Occurrences: occ, MinOccurrences: s.minOccurrences, MaxOccurrences: s.maxOccurrences,
			}
			if m.matched() {
				res.StackMatches++
				res.MatchedSignals = append(res.MatchedSignals, m)
			}
		}
	}

	// A signal list with any declared required signal left unmatched never
	// matches, regardless of optional/stack evidence.
	if res.RequiredTotal > 0 && res.RequiredMatches < res.RequiredTotal {
		res.IsMatch = false
		res.SkipReason = "Required signals not met"
		res.Confidence = 0
		return res, nil
	}

	res.IsMatch = true
	res.Confidence = blendConfidence(res)
	return res, nil
}

// blendConfidence applies the fixed REQ(0.5)/OPT(0.3)/Stack(0.2) weights. An
// empty category contributes 0 rather than being excluded from the
// denominator, so declaring only required signals caps confidence at 0.5.
func blendConfidence(r Result) float64 {
	var score float64

	if r.RequiredTotal > 0 {
		score += weightRequired * (float64(r.RequiredMatches) / float64(r.RequiredTotal))
	}
	if r.OptionalTotal > 0 {
		score += weightOptional * (float64(r.OptionalMatches) / float64(r.OptionalTotal))
	}
	if r.StackTotal > 0 {
		score += weightStack * (float64(r.StackMatches) / float64(r.StackTotal))
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func stackText(log *crashlog.CrashLog) string {
	var b strings.Builder
	for _, f := range log.CallStack {
		b.WriteString(strings.ToLower(f.Module))
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(f.Function))
		b.WriteByte('\n')
	}
	return b.String()
}
