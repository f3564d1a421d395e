package analyzer

import (
	"context"
	"fmt"

	"scanner111/src/crashlog"
	"scanner111/src/logger"
	"scanner111/src/severity"
	"scanner111/src/signal"
)

func init() {
	Register("suspect", func(log logger.Logger) Analyzer { return NewSuspectAnalyzer(log) })
}

// SuspectDefinition pairs a named known crash signature with the signal
// expressions that identify it and a base severity to feed the severity
// calculator.
type SuspectDefinition struct {
	Name         string
	BaseSeverity int
	Signals      []string
}

// defaultSuspects is the built-in table of known crash signatures. Modeled
// as data rather than code so new signatures can be added without touching
// the evaluation logic.
var defaultSuspects = []SuspectDefinition{
	{
		Name:         "Stack Overflow Crash",
		BaseSeverity: 4,
		Signals:      []string{"ME-REQ|EXCEPTION_STACK_OVERFLOW"},
	},
	{
		Name:         "Access Violation in Graphics Driver",
		BaseSeverity: 3,
		Signals:      []string{"ME-REQ|EXCEPTION_ACCESS_VIOLATION", "2|d3d11.dll"},
	},
	{
		Name:         "Heap Corruption",
		BaseSeverity: 4,
		Signals:      []string{"ME-REQ|HEAP_CORRUPTION", "NOT|known benign"},
	},
}

// SuspectAnalyzer evaluates the built-in suspect signature table against a
// crash log's main error and call stack using the signal-matching grammar.
type SuspectAnalyzer struct {
	log      logger.Logger
	suspects []SuspectDefinition
}

func NewSuspectAnalyzer(log logger.Logger) *SuspectAnalyzer {
	return &SuspectAnalyzer{log: log, suspects: defaultSuspects}
}

func (a *SuspectAnalyzer) Name() string           { return "suspect" }
func (a *SuspectAnalyzer) Priority() int          { return 30 }
func (a *SuspectAnalyzer) CanRunInParallel() bool { return true }

func (a *SuspectAnalyzer) Analyze(ctx context.Context, log *crashlog.CrashLog) (*Result, error) {
	res := NewResult(a.Name())

	for _, def := range a.suspects {
		match, err := signal.Evaluate(log, def.Signals)
		if err != nil {
			res.AddError(fmt.Sprintf("suspect %q: %v", def.Name, err))
			continue
		}
		if !match.IsMatch {
			continue
		}

		assessment := severity.Calculate(def.BaseSeverity, match, severity.Factors{})
		res.AddLine(fmt.Sprintf("[%s] matched (confidence %.2f, severity %s)", def.Name, match.Confidence, assessment.Level))
		res.Data[def.Name] = assessment
	}

	a.log.Debug("suspect analyzer: evaluated %d signatures for %s", len(a.suspects), log.FilePath)
	return res, nil
}
