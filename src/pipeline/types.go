// Package pipeline orchestrates crash-log analysis: parsing, analyzer
// fan-out under caching and resilient execution, and report composition,
// for both a single log and a batch.
package pipeline

import (
	"sync"
	"time"

	"scanner111/src/analyzer"
	"scanner111/src/crashlog"
)

// Status is the terminal (or in-flight) state of one ScanResult.
type Status int

const (
	Pending Status = iota
	InProgress
	Completed
	CompletedWithErrors
	Failed
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "Pending"
	case InProgress:
		return "InProgress"
	case Completed:
		return "Completed"
	case CompletedWithErrors:
		return "CompletedWithErrors"
	case Failed:
		return "Failed"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// ScanResult is the outcome of scanning one crash log.
type ScanResult struct {
	LogPath         string
	BatchID         string // shared by every result from the same ProcessBatch call; empty for ProcessSingle
	CrashLog        *crashlog.CrashLog // set nil once analysis completes
	AnalysisResults []*analyzer.Result
	ErrorMessages   []string
	Status          Status
	ProcessingTime  time.Duration
	ReportText      string
}

// ScanOptions configures a single ProcessBatch call.
type ScanOptions struct {
	MaxConcurrency         int // default runtime.NumCPU(); upper bound on parallel logs
	MaxDegreeOfParallelism int // optional; caps concurrent analyzers within one log, 0 = unbounded
	EnableCaching          bool // not read by ProcessBatch; caching is fixed per pipeline by New's enableCaching
	PreserveOrder          bool
	Timeout                time.Duration // optional per-log timeout; 0 = none
}

// BatchProgress is a point-in-time snapshot delivered to a ProgressSink
// after each result is yielded during ProcessBatch.
type BatchProgress struct {
	Processed              int
	Successful              int
	Failed                  int
	Incomplete              int
	Total                   int
	Elapsed                 time.Duration
	FilesPerSecond          float64
	EstimatedTimeRemaining  time.Duration
}

// ProgressSink receives progress notifications during a batch scan.
type ProgressSink interface {
	OnProgress(p BatchProgress)
}

// ProgressSinkFunc adapts a function to ProgressSink.
type ProgressSinkFunc func(BatchProgress)

func (f ProgressSinkFunc) OnProgress(p BatchProgress) { f(p) }

// NoopProgressSink discards all progress notifications.
type NoopProgressSink struct{}

func (NoopProgressSink) OnProgress(BatchProgress) {}

// SerializingProgressSink wraps an inner ProgressSink with a mutex so
// concurrent batch workers can safely share one sink instance.
type SerializingProgressSink struct {
	mu    sync.Mutex
	inner ProgressSink
}

func NewSerializingProgressSink(inner ProgressSink) *SerializingProgressSink {
	if inner == nil {
		inner = NoopProgressSink{}
	}
	return &SerializingProgressSink{inner: inner}
}

func (s *SerializingProgressSink) OnProgress(p BatchProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inner.OnProgress(p)
}
