package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"scanner111/src/severity"
)

// Palette holds the terminal colors used to render a report by severity
// level. Mirrors the triage UI's color-config idiom.
type Palette struct {
	Critical lipgloss.Color
	Error    lipgloss.Color
	Warning  lipgloss.Color
	Info     lipgloss.Color
	None     lipgloss.Color
}

// DefaultPalette returns the standard severity color scheme.
func DefaultPalette() *Palette {
	return &Palette{
		Critical: lipgloss.Color("#EA4335"),
		Error:    lipgloss.Color("#FF6B6B"),
		Warning:  lipgloss.Color("#FBBC04"),
		Info:     lipgloss.Color("#8AB4F8"),
		None:     lipgloss.Color("#9AA0A6"),
	}
}

func (p *Palette) styleFor(level severity.Level) lipgloss.Style {
	var c lipgloss.Color
	switch level {
	case severity.Critical:
		c = p.Critical
	case severity.Error:
		c = p.Error
	case severity.Warning:
		c = p.Warning
	case severity.Info:
		c = p.Info
	default:
		c = p.None
	}
	return lipgloss.NewStyle().Foreground(c)
}

// Colorize renders plain report text for a terminal, styling any line that
// opens with a recognized severity-level tag (e.g. "[Critical]"). Lines with
// no recognized tag are passed through unstyled. The plain ReportText is
// never mutated; this is purely a display transform.
func (p *Palette) Colorize(reportText string) string {
	lines := strings.Split(reportText, "\n")
	for i, line := range lines {
		level, ok := leadingLevel(line)
		if !ok {
			continue
		}
		lines[i] = p.styleFor(level).Render(line)
	}
	return strings.Join(lines, "\n")
}

func leadingLevel(line string) (severity.Level, bool) {
	trimmed := strings.TrimSpace(line)
	for _, level := range []severity.Level{severity.Critical, severity.Error, severity.Warning, severity.Info} {
		if strings.HasPrefix(trimmed, "["+level.String()+"]") {
			return level, true
		}
	}
	return severity.None, false
}
