package analyzer

import (
	"context"
	"fmt"
	"strings"

	"scanner111/src/callstack"
	"scanner111/src/crashlog"
	"scanner111/src/logger"
)

func init() {
	Register("record", func(log logger.Logger) Analyzer { return NewRecordAnalyzer(log) })
}

// recordPatterns are function-name fragments associated with engine record
// (form data) handling; heavy recursion or clustering through them usually
// means a plugin shipped a malformed or conflicting record edit.
var recordPatterns = []string{"TESForm", "LoadGame", "RecordLoad"}

// RecordAnalyzer looks for structural evidence in the call stack that a
// loaded record is implicated in the crash: recursion, clustering, or
// a known-problematic module holding three or more frames anywhere in the
// stack.
type RecordAnalyzer struct {
	log logger.Logger
}

func NewRecordAnalyzer(log logger.Logger) *RecordAnalyzer {
	return &RecordAnalyzer{log: log}
}

func (a *RecordAnalyzer) Name() string           { return "record" }
func (a *RecordAnalyzer) Priority() int          { return 50 }
func (a *RecordAnalyzer) CanRunInParallel() bool { return true }

func (a *RecordAnalyzer) Analyze(ctx context.Context, log *crashlog.CrashLog) (*Result, error) {
	res := NewResult(a.Name())
	if len(log.CallStack) == 0 {
		return res, nil
	}

	analysis := callstack.Analyze(log, recordPatterns)

	if analysis.RecursionDetected {
		res.AddLine("recursive record-loading pattern detected in call stack")
	}

	for _, pattern := range recordPatterns {
		indices := analysis.PatternMatches[pattern]
		if len(indices) == 0 {
			continue
		}
		stats := callstack.AnalyzePatternStatistics(log, pattern)
		res.AddLine(fmt.Sprintf("%s: %d occurrences, clustering coefficient %.2f", pattern, stats.TotalOccurrences, stats.ClusteringCoefficient))
	}

	for _, indicator := range analysis.ProblemIndicators {
		res.AddLine(strings.ToUpper(indicator[:1]) + indicator[1:])
	}

	a.log.Debug("record analyzer: %d problem indicators for %s", len(analysis.ProblemIndicators), log.FilePath)
	return res, nil
}
