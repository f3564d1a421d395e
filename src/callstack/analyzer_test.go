package callstack

import (
	"testing"

	"scanner111/src/crashlog"
)

func frame(i int, module, fn string) crashlog.StackFrame {
	return crashlog.StackFrame{Index: i, Module: module, Function: fn}
}

func TestAnalyze_ModuleCounts(t *testing.T) {
	log := &crashlog.CrashLog{CallStack: []crashlog.StackFrame{
		frame(0, "a.dll", "Fn1"),
		frame(1, "a.dll", "Fn2"),
		frame(2, "b.dll", "Fn3"),
	}}
	a := Analyze(log, nil)
	if a.ModuleCounts["a.dll"] != 2 {
		t.Errorf("ModuleCounts[a.dll] = %d, want 2", a.ModuleCounts["a.dll"])
	}
	if a.ModuleCounts["b.dll"] != 1 {
		t.Errorf("ModuleCounts[b.dll] = %d, want 1", a.ModuleCounts["b.dll"])
	}
}

func TestAnalyze_PatternClusters(t *testing.T) {
	log := &crashlog.CrashLog{CallStack: []crashlog.StackFrame{
		frame(0, "a.dll", "Fn1"),
		frame(1, "a.dll", "Fn2"),
		frame(2, "a.dll", "Fn3"),
		frame(3, "b.dll", "Fn4"),
	}}
	a := Analyze(log, nil)
	if len(a.PatternClusters) != 1 {
		t.Fatalf("len(PatternClusters) = %d, want 1", len(a.PatternClusters))
	}
	if a.PatternClusters[0].Size != 3 {
		t.Errorf("cluster size = %d, want 3", a.PatternClusters[0].Size)
	}
}

func TestAnalyze_DirectRecursion(t *testing.T) {
	log := &crashlog.CrashLog{CallStack: []crashlog.StackFrame{
		frame(0, "a.dll", "Recurse"),
		frame(1, "a.dll", "Recurse"),
		frame(2, "a.dll", "Recurse"),
	}}
	a := Analyze(log, nil)
	if !a.RecursionDetected {
		t.Error("expected direct recursion to be detected")
	}
}

func TestAnalyze_IndirectRecursion(t *testing.T) {
	log := &crashlog.CrashLog{CallStack: []crashlog.StackFrame{
		frame(0, "a.dll", "A"),
		frame(1, "a.dll", "B"),
		frame(2, "a.dll", "A"),
		frame(3, "a.dll", "B"),
	}}
	a := Analyze(log, nil)
	if !a.RecursionDetected {
		t.Error("expected indirect (A->B repeating) recursion to be detected")
	}
}

func TestAnalyze_NoRecursion(t *testing.T) {
	log := &crashlog.CrashLog{CallStack: []crashlog.StackFrame{
		frame(0, "a.dll", "A"),
		frame(1, "b.dll", "B"),
		frame(2, "c.dll", "C"),
	}}
	a := Analyze(log, nil)
	if a.RecursionDetected {
		t.Error("expected no recursion")
	}
}

func TestAnalyze_DominatedByIndicator(t *testing.T) {
	frames := make([]crashlog.StackFrame, 0, 10)
	for i := 0; i < 8; i++ {
		frames = append(frames, frame(i, "dominant.dll", "Fn"))
	}
	frames = append(frames, frame(8, "other.dll", "Fn"))
	frames = append(frames, frame(9, "other2.dll", "Fn"))
	log := &crashlog.CrashLog{CallStack: frames}

	a := Analyze(log, nil)
	found := false
	for _, ind := range a.ProblemIndicators {
		if contains(ind, "dominated by") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a 'dominated by' indicator, got %v", a.ProblemIndicators)
	}
}

func TestAnalyzePatternStatistics_ClusteringBounds(t *testing.T) {
	log := &crashlog.CrashLog{CallStack: []crashlog.StackFrame{
		frame(0, "target.dll", "Fn"),
		frame(1, "other.dll", "Fn"),
		frame(2, "target.dll", "Fn"),
		frame(3, "other.dll", "Fn"),
	}}
	stats := AnalyzePatternStatistics(log, "target.dll")
	if stats.TotalOccurrences != 2 {
		t.Fatalf("TotalOccurrences = %d, want 2", stats.TotalOccurrences)
	}
	if stats.ClusteringCoefficient < 0 || stats.ClusteringCoefficient > 1 {
		t.Fatalf("ClusteringCoefficient out of [0,1]: %v", stats.ClusteringCoefficient)
	}
}

func TestAnalyzePatternStatistics_SingleOccurrenceIsZero(t *testing.T) {
	log := &crashlog.CrashLog{CallStack: []crashlog.StackFrame{
		frame(0, "target.dll", "Fn"),
		frame(1, "other.dll", "Fn"),
	}}
	stats := AnalyzePatternStatistics(log, "target.dll")
	if stats.ClusteringCoefficient != 0 {
		t.Errorf("ClusteringCoefficient = %v, want 0 for single occurrence", stats.ClusteringCoefficient)
	}
}

func TestFindOrderedSequence(t *testing.T) {
	frames := []crashlog.StackFrame{
		frame(0, "a.dll", "Fn"),
		frame(1, "b.dll", "Fn"),
		frame(2, "c.dll", "Fn"),
	}
	if !FindOrderedSequence(frames, []string{"a.dll", "c.dll"}) {
		t.Error("expected ordered sequence a.dll -> c.dll to be found")
	}
	if FindOrderedSequence(frames, []string{"c.dll", "a.dll"}) {
		t.Error("expected reversed sequence to not be found")
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
