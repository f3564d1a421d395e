// Package store persists a trend history of completed scans, independent
// of the analysis pipeline itself.
package store

import (
	"context"
	"time"

	"scanner111/src/pipeline"
)

// ScanSummary is one row of scan history: just enough to support trend
// queries across repeated scans of the same mod list.
type ScanSummary struct {
	LogPath       string
	ScannedAt     time.Time
	Status        pipeline.Status
	SeverityLevel string
	FindingsCount int
}

// ScanHistoryStore persists ScanSummary rows. It is never consulted by
// ScanPipeline itself — a caller notifies it as an observer after each
// completed scan.
type ScanHistoryStore interface {
	Store(ctx context.Context, summary ScanSummary) error
	Recent(ctx context.Context, n int) ([]ScanSummary, error)
	Close() error
}
