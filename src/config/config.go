// Package config provides configuration management for the crash-log scan
// pipeline.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	// MaxConcurrency bounds how many logs ProcessBatch analyzes at once.
	// Defaults to runtime.NumCPU().
	MaxConcurrency int

	// EnableCaching turns on the AnalysisResultCache.
	EnableCaching bool

	// PreserveOrder, when true, has ProcessBatch yield results in input
	// order rather than completion order (trades latency for determinism).
	PreserveOrder bool

	// ScanTimeout bounds how long each log in a batch scan may run before it
	// is cancelled (passed as ScanOptions.Timeout).
	ScanTimeout time.Duration

	// FcxEnabled turns on the FileIntegrity (FCX) pre-check decorator.
	FcxEnabled bool

	// ScanHistoryDSN is the Postgres connection string for ScanHistoryStore.
	// Empty means use the in-memory store.
	ScanHistoryDSN string
}

// LoadFromEnv loads configuration from environment variables, applying
// defaults for anything unset; a malformed value is returned as an error.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		MaxConcurrency: runtime.NumCPU(),
		EnableCaching:  true,
		PreserveOrder:  false,
		ScanTimeout:    2 * time.Minute,
		FcxEnabled:     false,
		ScanHistoryDSN: os.Getenv("SCAN_HISTORY_DSN"),
	}

	if v := os.Getenv("MAX_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MAX_CONCURRENCY must be a positive integer, got %q", v)
		}
		cfg.MaxConcurrency = n
	}

	if v := os.Getenv("ENABLE_CACHING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("ENABLE_CACHING must be a boolean, got %q", v)
		}
		cfg.EnableCaching = b
	}

	if v := os.Getenv("PRESERVE_ORDER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("PRESERVE_ORDER must be a boolean, got %q", v)
		}
		cfg.PreserveOrder = b
	}

	if v := os.Getenv("SCAN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SCAN_TIMEOUT must be a duration (e.g. \"90s\"), got %q", v)
		}
		cfg.ScanTimeout = d
	}

	if v := os.Getenv("FCX_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("FCX_ENABLED must be a boolean, got %q", v)
		}
		cfg.FcxEnabled = b
	}

	cfg.ScanHistoryDSN = strings.TrimSpace(cfg.ScanHistoryDSN)

	return cfg, nil
}
