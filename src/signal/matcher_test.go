package signal

import (
	"testing"

	"scanner111/src/crashlog"
)

func logWith(mainError string, frames ...crashlog.StackFrame) *crashlog.CrashLog {
	return &crashlog.CrashLog{MainError: mainError, CallStack: frames}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{"required", "ME-REQ|EXCEPTION_ACCESS_VIOLATION", false},
		{"optional", "ME-OPT|d3d11.dll", false},
		{"negative", "NOT|benign warning", false},
		{"stack count", "2|SomeMod.dll", false},
		{"stack range", "1-3|SomeMod.dll", false},
		{"bare pattern", "SomeMod.dll", false},
		{"non-numeric range prefix", "x|SomeMod.dll", true},
		{"unrecognized prefix", "BOGUS-THING|foo", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestEvaluate_RequiredMatch(t *testing.T) {
	log := logWith("Unhandled exception EXCEPTION_ACCESS_VIOLATION at 0x0")
	res, err := Evaluate(log, []string{"ME-REQ|EXCEPTION_ACCESS_VIOLATION"})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !res.IsMatch {
		t.Fatalf("expected match, got skip reason %q", res.SkipReason)
	}
	if res.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5 (required-only weight)", res.Confidence)
	}
}

func TestEvaluate_RequiredMissingFails(t *testing.T) {
	log := logWith("Unhandled exception SOMETHING_ELSE at 0x0")
	res, err := Evaluate(log, []string{"ME-REQ|EXCEPTION_ACCESS_VIOLATION"})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if res.IsMatch {
		t.Fatal("expected no match when required signal absent")
	}
	if res.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", res.Confidence)
	}
}

func TestEvaluate_NotShortCircuits(t *testing.T) {
	log := logWith("Unhandled exception EXCEPTION_ACCESS_VIOLATION at 0x0 (known benign case)")
	res, err := Evaluate(log, []string{
		"ME-REQ|EXCEPTION_ACCESS_VIOLATION",
		"NOT|known benign case",
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if res.IsMatch {
		t.Fatal("expected NOT signal to veto the match")
	}
	if res.SkipReason == "" {
		t.Error("expected a SkipReason explaining the veto")
	}
}

func TestEvaluate_NotVetoesFromCallStack(t *testing.T) {
	log := logWith("Unhandled exception EXCEPTION_ACCESS_VIOLATION at 0x0",
		crashlog.StackFrame{Module: "KnownSafeMod.dll", Function: "Harmless"})
	res, err := Evaluate(log, []string{
		"ME-REQ|EXCEPTION_ACCESS_VIOLATION",
		"NOT|knownsafemod.dll",
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if res.IsMatch {
		t.Fatal("expected NOT signal found in the call stack to veto the match")
	}
	if res.SkipReason != "Negative condition met" {
		t.Errorf("SkipReason = %q, want %q", res.SkipReason, "Negative condition met")
	}
}

func TestEvaluate_BarePatternIsStackSignal(t *testing.T) {
	log := logWith("Unhandled exception EXCEPTION_ACCESS_VIOLATION at 0x0",
		crashlog.StackFrame{Module: "SomeMod.dll", Function: "Update"})
	res, err := Evaluate(log, []string{"SomeMod.dll"})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if res.StackTotal != 1 || res.StackMatches != 1 {
		t.Errorf("StackTotal/StackMatches = %d/%d, want 1/1", res.StackTotal, res.StackMatches)
	}
}

func TestEvaluate_StackEvidenceBoostsConfidence(t *testing.T) {
	frames := []crashlog.StackFrame{
		{Module: "SomeMod.dll", Function: "Update"},
		{Module: "SomeMod.dll", Function: "Render"},
	}
	log := logWith("Unhandled exception EXCEPTION_ACCESS_VIOLATION at 0x0", frames...)

	withoutStack, _ := Evaluate(log, []string{"ME-REQ|EXCEPTION_ACCESS_VIOLATION"})
	withStack, _ := Evaluate(log, []string{"ME-REQ|EXCEPTION_ACCESS_VIOLATION", "2|somemod.dll"})

	if withStack.Confidence <= withoutStack.Confidence {
		t.Fatalf("expected stack evidence to raise confidence: without=%v with=%v", withoutStack.Confidence, withStack.Confidence)
	}
	if withStack.Confidence > 1 {
		t.Fatalf("Confidence out of bounds: %v", withStack.Confidence)
	}
}

func TestEvaluate_ConfidenceAlwaysBounded(t *testing.T) {
	log := logWith("random unrelated text")
	res, err := Evaluate(log, []string{"ME-OPT|foo", "ME-OPT|bar", "5|baz"})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		t.Fatalf("Confidence out of [0,1]: %v", res.Confidence)
	}
}
