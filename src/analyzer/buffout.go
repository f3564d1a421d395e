package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"scanner111/src/crashlog"
	"scanner111/src/logger"
)

func init() {
	Register("buffoutversion", func(log logger.Logger) Analyzer { return NewBuffoutVersionAnalyzer(log) })
}

var buffoutVersionLine = regexp.MustCompile(`(?i)Buffout\s*4\s+v([0-9]+)\.([0-9]+)\.([0-9]+)`)

// minimumBuffoutVersion is the lowest crash-logger version this tool trusts
// to produce a reliably-parseable log.
var minimumBuffoutVersion = [3]int{1, 26, 0}

// BuffoutVersionAnalyzer flags crash logs produced by an outdated Buffout 4
// (the Fallout 4 crash logger) build, since older builds are known to omit
// or mis-format sections this tool depends on.
type BuffoutVersionAnalyzer struct {
	log logger.Logger
}

func NewBuffoutVersionAnalyzer(log logger.Logger) *BuffoutVersionAnalyzer {
	return &BuffoutVersionAnalyzer{log: log}
}

func (a *BuffoutVersionAnalyzer) Name() string           { return "buffoutversion" }
func (a *BuffoutVersionAnalyzer) Priority() int          { return 5 }
func (a *BuffoutVersionAnalyzer) CanRunInParallel() bool { return true }

func (a *BuffoutVersionAnalyzer) Analyze(ctx context.Context, log *crashlog.CrashLog) (*Result, error) {
	res := NewResult(a.Name())

	var found string
	for _, lines := range log.Sections {
		for _, line := range lines {
			if m := buffoutVersionLine.FindStringSubmatch(line); m != nil {
				found = strings.Join(m[1:], ".")
			}
		}
	}
	if found == "" {
		if m := buffoutVersionLine.FindStringSubmatch(log.MainError); m != nil {
			found = strings.Join(m[1:], ".")
		}
	}

	if found == "" {
		res.AddLine("Buffout 4 version marker not found; report may be incomplete")
		return res, nil
	}

	res.Data["BuffoutVersion"] = found
	parts := strings.Split(found, ".")
	version := [3]int{}
	for i := 0; i < 3 && i < len(parts); i++ {
		version[i], _ = strconv.Atoi(parts[i])
	}

	if versionLess(version, minimumBuffoutVersion) {
		res.AddLine(fmt.Sprintf("Buffout 4 v%s is older than the recommended v%d.%d.%d; update for more reliable crash logs",
			found, minimumBuffoutVersion[0], minimumBuffoutVersion[1], minimumBuffoutVersion[2]))
	}

	return res, nil
}

func versionLess(a, b [3]int) bool {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
