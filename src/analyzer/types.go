// Package analyzer defines the Analyzer plug-in contract and the concrete
// analyzers that inspect a parsed crash log and produce report fragments.
package analyzer

import (
	"context"

	"scanner111/src/crashlog"
)

// Result is the outcome of one analyzer run against one crash log.
type Result struct {
	AnalyzerName string
	Success      bool
	HasFindings  bool

	// ReportLines are ordered text fragments merged into the final report.
	ReportLines []string

	// Data is an open bag of analyzer-specific values, e.g. fileintegrity
	// stores GameStatus and FcxResult here.
	Data map[string]any

	Errors []string
}

// NewResult returns an empty, successful result for the given analyzer name.
func NewResult(name string) *Result {
	return &Result{AnalyzerName: name, Success: true, Data: make(map[string]any)}
}

func (r *Result) AddLine(line string) {
	r.ReportLines = append(r.ReportLines, line)
	r.HasFindings = true
}

func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Success = false
}

// GameStatus classifies the outcome of a file-integrity (FCX) check.
type GameStatus int

const (
	Good GameStatus = iota
	Warning
	Critical
)

func (s GameStatus) String() string {
	switch s {
	case Good:
		return "Good"
	case Warning:
		return "Warning"
	default:
		return "Critical"
	}
}

// FileCheck records the expected/observed state of one game file checked by
// the FileIntegrity analyzer.
type FileCheck struct {
	Path     string
	Expected string
	Observed string
	OK       bool
}

// HashValidation records a single hash comparison against a known-good value.
type HashValidation struct {
	Path     string
	Expected string
	Actual   string
	Match    bool
}

// FcxResult specializes Result with file-integrity-specific fields.
type FcxResult struct {
	*Result
	GameStatus      GameStatus
	FileChecks      []FileCheck
	HashValidations []HashValidation
}

// Analyzer is the capability set every plug-in must satisfy.
type Analyzer interface {
	Name() string
	Priority() int
	CanRunInParallel() bool
	Analyze(ctx context.Context, log *crashlog.CrashLog) (*Result, error)
}
