// Package cache memoizes analyzer output by (log path, analyzer name),
// invalidated automatically when the source file's mtime changes.
package cache

import (
	"os"
	"sync"

	"scanner111/src/analyzer"
)

type entry struct {
	result *analyzer.Result
	mtime  int64
}

// Statistics summarizes cache effectiveness.
type Statistics struct {
	Hits    int64
	Misses  int64
	HitRate float64
}

// AnalysisResultCache is a thread-safe (logPath, analyzerName) -> AnalysisResult
// cache, keyed additionally by the source file's mtime at storage time.
type AnalysisResultCache struct {
	mu      sync.RWMutex
	entries map[string]map[string]entry // logPath -> analyzerName -> entry

	hits   int64
	misses int64
}

// New returns an empty cache.
func New() *AnalysisResultCache {
	return &AnalysisResultCache{entries: make(map[string]map[string]entry)}
}

// Get returns the cached result for (logPath, analyzerName) iff it was
// stored against the file's current mtime. A changed mtime is treated as a
// miss, not an error.
func (c *AnalysisResultCache) Get(logPath, analyzerName string) (*analyzer.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byAnalyzer, ok := c.entries[logPath]
	if !ok {
		c.misses++
		return nil, false
	}
	e, ok := byAnalyzer[analyzerName]
	if !ok {
		c.misses++
		return nil, false
	}

	currentMtime, err := fileMtime(logPath)
	if err != nil || currentMtime != e.mtime {
		c.misses++
		return nil, false
	}

	c.hits++
	return e.result, true
}

// Put stores result iff it succeeded. Failed results are never cached, so a
// transient analyzer failure doesn't poison future scans of the same file.
func (c *AnalysisResultCache) Put(logPath, analyzerName string, result *analyzer.Result) {
	if result == nil || !result.Success {
		return
	}

	mtime, err := fileMtime(logPath)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[logPath] == nil {
		c.entries[logPath] = make(map[string]entry)
	}
	c.entries[logPath][analyzerName] = entry{result: result, mtime: mtime}
}

// IsFileCacheValid reports whether any cached entry for logPath still
// matches the file's current mtime.
func (c *AnalysisResultCache) IsFileCacheValid(logPath string) bool {
	c.mu.RLock()
	byAnalyzer, ok := c.entries[logPath]
	c.mu.RUnlock()
	if !ok || len(byAnalyzer) == 0 {
		return false
	}

	currentMtime, err := fileMtime(logPath)
	if err != nil {
		return false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range byAnalyzer {
		if e.mtime == currentMtime {
			return true
		}
	}
	return false
}

// Statistics returns a snapshot of hit/miss counters.
func (c *AnalysisResultCache) Statistics() Statistics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.hits + c.misses
	stats := Statistics{Hits: c.hits, Misses: c.misses}
	if total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}

func fileMtime(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.ModTime().UnixNano(), nil
}
