package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"scanner111/src/crashlog"
	"scanner111/src/logger"
)

func init() {
	Register("formid", func(log logger.Logger) Analyzer { return NewFormIdAnalyzer(log) })
}

var formIDPattern = regexp.MustCompile(`\b([0-9A-Fa-f]{2})([0-9A-Fa-f]{6})\b`)

// FormIdAnalyzer correlates Form IDs mentioned in the main error or call
// stack with the plugin that owns their two-hex-digit load-order prefix, or,
// for FE-prefixed (light plugin) IDs, the three hex digits after "FE".
type FormIdAnalyzer struct {
	log logger.Logger
}

func NewFormIdAnalyzer(log logger.Logger) *FormIdAnalyzer {
	return &FormIdAnalyzer{log: log}
}

func (a *FormIdAnalyzer) Name() string           { return "formid" }
func (a *FormIdAnalyzer) Priority() int          { return 20 }
func (a *FormIdAnalyzer) CanRunInParallel() bool { return true }

func (a *FormIdAnalyzer) Analyze(ctx context.Context, log *crashlog.CrashLog) (*Result, error) {
	res := NewResult(a.Name())

	loadOrder := parsePluginLoadOrder(log.Plugins())
	if len(loadOrder) == 0 {
		return res, nil
	}

	text := log.MainError
	for _, f := range log.CallStack {
		text += " " + f.Function
	}

	seen := make(map[string]bool)
	for _, m := range formIDPattern.FindAllStringSubmatch(text, -1) {
		formID := strings.ToUpper(m[0])
		if seen[formID] {
			continue
		}
		seen[formID] = true

		prefix := strings.ToUpper(m[1])
		key, slot := prefix, prefix
		if prefix == "FE" {
			key = formID[2:5]
			slot = "FE " + key
		}
		if plugin, ok := loadOrder[key]; ok {
			res.AddLine(fmt.Sprintf("Form ID %s belongs to load-order slot [%s] -> %s", formID, slot, plugin))
			res.Data[formID] = plugin
		}
	}

	a.log.Debug("formid analyzer: found %d candidate form IDs for %s", len(seen), log.FilePath)
	return res, nil
}

// parsePluginLoadOrder reads the "[XX] Plugin.esp" or "[FE XXX] Plugin.esl"
// lines of the PLUGINS section into a prefix -> plugin name map.
func parsePluginLoadOrder(lines []string) map[string]string {
	out := make(map[string]string)
	indexLine := regexp.MustCompile(`^\[([0-9A-Fa-f]{2})(?:\s+([0-9A-Fa-f]{3}))?\]\s+(.+)$`)
	for _, line := range lines {
		m := indexLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[3])
		if m[1] == "FE" || strings.EqualFold(m[1], "fe") {
			if m[2] != "" {
				out[strings.ToUpper(m[2])] = name
			}
			continue
		}
		out[strings.ToUpper(m[1])] = name
	}
	return out
}
