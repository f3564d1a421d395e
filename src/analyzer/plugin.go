package analyzer

import (
	"context"
	"fmt"
	"strings"

	"scanner111/src/crashlog"
	"scanner111/src/logger"
)

func init() {
	Register("plugin", func(log logger.Logger) Analyzer { return NewPluginAnalyzer(log) })
}

// knownProblemPlugins are plugins with a well-documented history of causing
// instability on their own, independent of what else is loaded.
var knownProblemPlugins = map[string]string{
	"unofficial patch.esp": "known to conflict with several widely-used overhaul mods",
}

// PluginAnalyzer inspects the PLUGINS section for load-order irregularities:
// duplicate plugin names and known-problem entries. Disabled masters are not
// detected.
type PluginAnalyzer struct {
	log logger.Logger
}

func NewPluginAnalyzer(log logger.Logger) *PluginAnalyzer {
	return &PluginAnalyzer{log: log}
}

func (a *PluginAnalyzer) Name() string           { return "plugin" }
func (a *PluginAnalyzer) Priority() int          { return 10 }
func (a *PluginAnalyzer) CanRunInParallel() bool { return true }

func (a *PluginAnalyzer) Analyze(ctx context.Context, log *crashlog.CrashLog) (*Result, error) {
	res := NewResult(a.Name())

	plugins := log.Plugins()
	if len(plugins) == 0 {
		return res, nil
	}

	seen := make(map[string]int)
	for _, line := range plugins {
		name := pluginNameFromLine(line)
		if name == "" {
			continue
		}
		seen[strings.ToLower(name)]++
	}

	for name, count := range seen {
		if count > 1 {
			res.AddLine(fmt.Sprintf("plugin %q appears %d times in the load order", name, count))
		}
		if reason, known := knownProblemPlugins[name]; known {
			res.AddLine(fmt.Sprintf("plugin %q is a known problem plugin: %s", name, reason))
		}
	}

	res.Data["PluginCount"] = len(seen)
	a.log.Debug("plugin analyzer: %d unique plugins loaded for %s", len(seen), log.FilePath)
	return res, nil
}

func pluginNameFromLine(line string) string {
	line = strings.TrimSpace(line)
	if idx := strings.Index(line, "]"); idx >= 0 && strings.HasPrefix(line, "[") {
		return strings.TrimSpace(line[idx+1:])
	}
	return line
}
