package severity

import (
	"testing"

	"scanner111/src/signal"
)

func TestLevelFromBase(t *testing.T) {
	tests := []struct {
		base int
		want Level
	}{
		{0, None}, {1, Info}, {2, Info}, {3, Warning}, {4, Error}, {5, Critical}, {9, Critical},
	}
	for _, tt := range tests {
		if got := LevelFromBase(tt.base); got != tt.want {
			t.Errorf("LevelFromBase(%d) = %v, want %v", tt.base, got, tt.want)
		}
	}
}

func TestCalculate_ScoreAlwaysBounded(t *testing.T) {
	match := signal.Result{
		IsMatch:         true,
		Confidence:      1.0,
		RequiredTotal:   1,
		RequiredMatches: 1,
		MatchedSignals: []signal.Match{
			{Occurrences: 50},
			{Occurrences: 50},
			{Occurrences: 50},
		},
	}
	factors := Factors{IsDllCrash: true, IsRecurring: true, HasMultipleIndicators: true, AffectsGameStability: true, IsKnownCriticalPattern: true}
	a := Calculate(9, match, factors)
	if a.Score < 0 || a.Score > 1 {
		t.Fatalf("Score out of [0,1]: %v", a.Score)
	}
	if a.Level != Critical {
		t.Errorf("Level = %v, want Critical for maxed-out inputs", a.Level)
	}
}

func TestCalculate_KnownCriticalPatternEscalates(t *testing.T) {
	a := Calculate(1, signal.Result{}, Factors{IsKnownCriticalPattern: true})
	if !a.WasEscalated {
		t.Error("expected escalation for known critical pattern")
	}
	if a.Explanation == "" {
		t.Error("expected a non-empty escalation explanation")
	}
}

func TestCalculate_RecurringAndStabilityEscalates(t *testing.T) {
	a := Calculate(3, signal.Result{}, Factors{IsRecurring: true, AffectsGameStability: true})
	if !a.WasEscalated {
		t.Error("expected escalation when recurring and affects stability")
	}
}

func TestCalculate_HighConfidenceAllRequiredEscalates(t *testing.T) {
	match := signal.Result{RequiredTotal: 2, RequiredMatches: 2, Confidence: 0.95, IsMatch: true}
	a := Calculate(2, match, Factors{})
	if !a.WasEscalated {
		t.Error("expected escalation when all required signals match with high confidence")
	}
}

func TestCalculate_NoEscalationStaysAtComputedLevel(t *testing.T) {
	a := Calculate(0, signal.Result{}, Factors{})
	if a.WasEscalated {
		t.Error("expected no escalation for a minimal finding")
	}
	if a.Level != None {
		t.Errorf("Level = %v, want None", a.Level)
	}
}

func TestCalculateCombined_Empty(t *testing.T) {
	a := CalculateCombined(nil)
	if a.Level != None {
		t.Errorf("Level = %v, want None for empty input", a.Level)
	}
}

func TestCalculateCombined_MultipleCriticalEscalates(t *testing.T) {
	assessments := []Assessment{
		{Level: Critical, Score: 0.9},
		{Level: Critical, Score: 0.85},
		{Level: Info, Score: 0.15},
	}
	a := CalculateCombined(assessments)
	if a.Level != Critical {
		t.Errorf("Level = %v, want Critical when >= 2 assessments are Critical", a.Level)
	}
	if a.Score < 0 || a.Score > 1 {
		t.Fatalf("Score out of [0,1]: %v", a.Score)
	}
}

func TestCalculateCombined_ThreeErrorsEscalates(t *testing.T) {
	assessments := []Assessment{
		{Level: Error, Score: 0.65},
		{Level: Error, Score: 0.62},
		{Level: Error, Score: 0.6},
	}
	a := CalculateCombined(assessments)
	if a.Level < Error {
		t.Errorf("Level = %v, want at least Error when >= 3 assessments are Error", a.Level)
	}
}
