// Package report assembles analyzer output fragments into a single
// diagnostic report, with an optional colorized rendering for terminals.
package report

import (
	"strings"

	"scanner111/src/analyzer"
)

const (
	opcSectionMarkerA = "CHECKING FOR MODS THAT ARE PATCHED THROUGH OPC INSTALLER"
	opcSectionMarkerB = "MODS PATCHED THROUGH OPC INSTALLER"
	sectionRule       = "===="
)

// Composer aggregates AnalysisResult report fragments, in priority order,
// into one text block, dropping any OPC (third-party patcher) subsection.
type Composer struct{}

// NewComposer returns a ready-to-use Composer.
func NewComposer() *Composer {
	return &Composer{}
}

// Compose concatenates each result's ReportLines, inserting a section rule
// between analyzers, then strips OPC subsections from the merged text.
func (c *Composer) Compose(results []*analyzer.Result) string {
	var lines []string
	for i, r := range results {
		if r == nil || len(r.ReportLines) == 0 {
			continue
		}
		if i > 0 && len(lines) > 0 {
			lines = append(lines, sectionRule)
		}
		lines = append(lines, r.ReportLines...)
	}
	return strings.Join(filterOPC(lines), "\n")
}

// filterOPC drops an OPC subsection: once a line containing either OPC
// marker is seen, the preceding section rule (if any) and every following
// line up to the next section rule are removed.
func filterOPC(lines []string) []string {
	out := make([]string, 0, len(lines))
	var skipping bool

	for _, line := range lines {
		if !skipping && (strings.Contains(line, opcSectionMarkerA) || strings.Contains(line, opcSectionMarkerB)) {
			if len(out) > 0 && out[len(out)-1] == sectionRule {
				out = out[:len(out)-1]
			}
			skipping = true
			continue
		}
		if skipping {
			if strings.Contains(line, sectionRule) {
				skipping = false
			}
			continue
		}
		out = append(out, line)
	}
	return out
}
