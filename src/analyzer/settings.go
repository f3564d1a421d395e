package analyzer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"scanner111/src/crashlog"
	"scanner111/src/logger"
)

func init() {
	Register("settings", func(log logger.Logger) Analyzer { return NewSettingsAnalyzer(log) })
}

// knownBadSettings maps a "Key" -> {badValue: reason} table of settings
// values that are known to cause instability.
var knownBadSettings = map[string]map[string]string{
	"Achievements": {
		"true": "Achievements enabled alongside mods silently disables mod functionality in some builds",
	},
	"MemoryManager": {
		"false": "disabling the memory manager override reintroduces the vanilla out-of-memory crash",
	},
}

// SettingsAnalyzer inspects the SETTINGS section (key:value lines) for
// known-problematic configuration values.
type SettingsAnalyzer struct {
	log logger.Logger
}

func NewSettingsAnalyzer(log logger.Logger) *SettingsAnalyzer {
	return &SettingsAnalyzer{log: log}
}

func (a *SettingsAnalyzer) Name() string           { return "settings" }
func (a *SettingsAnalyzer) Priority() int          { return 40 }
func (a *SettingsAnalyzer) CanRunInParallel() bool { return true }

func (a *SettingsAnalyzer) Analyze(ctx context.Context, log *crashlog.CrashLog) (*Result, error) {
	res := NewResult(a.Name())

	settings := parseSettings(log.Settings())
	for key, reasons := range knownBadSettings {
		value, ok := settings[key]
		if !ok {
			continue
		}
		if reason, bad := reasons[strings.ToLower(value)]; bad {
			res.AddLine(fmt.Sprintf("setting %s=%s: %s", key, value, reason))
		}
	}

	res.Data["SettingsCount"] = strconv.Itoa(len(settings))
	a.log.Debug("settings analyzer: parsed %d settings for %s", len(settings), log.FilePath)
	return res, nil
}

func parseSettings(lines []string) map[string]string {
	out := make(map[string]string)
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			key, value, ok = strings.Cut(line, "=")
		}
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}
