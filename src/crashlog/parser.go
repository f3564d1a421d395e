package crashlog

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode"

	"scanner111/src/sanitize"
)

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	// ruleLine matches a bare "====" delimiter line.
	ruleLine = regexp.MustCompile(`^=+$`)

	// titleHeader matches a capitalized section title ending in a "====" rule,
	// e.g. "PLUGINS ====" or "PROBABLE CALL STACK: ====".
	titleHeader = regexp.MustCompile(`^([A-Z][A-Z0-9 _/.,:-]*?)\s*=+\s*$`)

	unhandledExceptionLine = regexp.MustCompile(`(?i)unhandled exception`)

	// canonical stack-frame form, per spec §6.
	stackFrameCanonical = regexp.MustCompile(`^\[(\d+)\]\s+(0x[0-9A-Fa-f]+)\s+([^\s]+(?:\.(?:exe|dll)))(?:\+0x[0-9A-Fa-f]+)?(?:\s+->\s+(.+))?$`)

	// tolerated fallback form: "Frame N: 0x... in <module>"
	stackFrameFallback = regexp.MustCompile(`(?i)^Frame\s+(\d+):\s+(0x[0-9A-Fa-f]+)\s+in\s+(\S+)`)

	gameVersionLine = regexp.MustCompile(`(?i)^(Fallout\s*4\s*VR|Fallout\s*4|Skyrim Special Edition|Skyrim)\s+v?([0-9][0-9.]*)`)
	gameRootLine    = regexp.MustCompile(`(?i)^GAME\s*ROOT(?:\s*PATH)?\s*[:=]\s*(.+)$`)

	callStackSectionNames = map[string]bool{
		"CALL STACK":          true,
		"PROBABLE CALL STACK": true,
	}
)

// ParseError indicates the log file could not be read or recognized at all.
// It is distinct from a per-line warning, which is recorded in Warnings.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("crashlog: parse failed for %q: %s", e.Path, e.Reason)
}

// Parse reads the crash log at path and returns its structured representation.
func Parse(path string) (*CrashLog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}

	return ParseBytes(path, raw, info.ModTime())
}

// ParseBytes parses already-read file content. Exposed separately so tests
// don't need a real file on disk.
func ParseBytes(path string, raw []byte, mtime time.Time) (*CrashLog, error) {
	if len(raw) == 0 {
		return nil, &ParseError{Path: path, Reason: "empty file"}
	}

	raw = bytes.TrimPrefix(raw, utf8BOM)
	text := sanitize.Clean(string(raw))
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Path: path, Reason: "empty file"}
	}

	lines := splitLines(text)

	log := &CrashLog{
		FilePath: path,
		Mtime:    mtime.UnixNano(),
		Sections: make(map[string][]string),
	}

	if !hasRecognizableHeader(lines) {
		return nil, &ParseError{Path: path, Reason: "missing required top header"}
	}

	preamble, mainErrorLines := extractSections(lines, log)
	log.MainError = strings.TrimSpace(strings.Join(mainErrorLines, "\n"))

	for _, line := range preamble {
		if log.GameVersion == "" {
			if m := gameVersionLine.FindStringSubmatch(line); m != nil {
				log.GameVersion = NormalizeGameType(normalizeGameIdentifier(m[1])) + " " + m[2]
			}
		}
		if log.GameRootPath == "" {
			if m := gameRootLine.FindStringSubmatch(line); m != nil {
				log.GameRootPath = strings.TrimSpace(m[1])
			}
		}
	}

	for name, sectionLines := range log.Sections {
		if callStackSectionNames[name] {
			log.CallStack = parseCallStack(sectionLines, log)
		}
	}

	return log, nil
}

func normalizeGameIdentifier(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// hasRecognizableHeader requires at least one recognizable marker within the
// log: a rule line, a titled header, or an "Unhandled exception" line.
func hasRecognizableHeader(lines []string) bool {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if ruleLine.MatchString(trimmed) || titleHeader.MatchString(trimmed) {
			return true
		}
		if unhandledExceptionLine.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// extractSections walks the line list, splitting it into named sections
// (bounded by titled headers, bare rule lines, and blank-line boundaries)
// and returns the pre-header preamble along with the main-error block lines.
func extractSections(lines []string, log *CrashLog) (preamble, mainError []string) {
	var currentName string
	var currentLines []string
	inPreamble := true
	collectingMainError := false

	flush := func() {
		if currentName != "" {
			log.Sections[currentName] = append(log.Sections[currentName], currentLines...)
		}
		currentName = ""
		currentLines = nil
	}

	for _, raw := range lines {
		trimmed := strings.TrimSpace(raw)

		if m := titleHeader.FindStringSubmatch(trimmed); m != nil {
			flush()
			inPreamble = false
			collectingMainError = false
			currentName = normalizeSectionName(m[1])
			continue
		}

		if ruleLine.MatchString(trimmed) {
			flush()
			collectingMainError = false
			continue
		}

		if trimmed == "" {
			flush()
			if collectingMainError {
				collectingMainError = false
			}
			continue
		}

		if currentName != "" {
			if err := validateSectionLine(currentName, raw); err != "" {
				log.Warnings = append(log.Warnings, fmt.Sprintf("section %s: %s", currentName, err))
				continue
			}
			currentLines = append(currentLines, raw)
			continue
		}

		if inPreamble {
			preamble = append(preamble, raw)
			if !collectingMainError && unhandledExceptionLine.MatchString(trimmed) {
				collectingMainError = true
			}
			if collectingMainError {
				mainError = append(mainError, raw)
			}
		}
	}
	flush()

	return preamble, mainError
}

// validateSectionLine performs light structural validation on lines inside
// a recognized section, returning a non-empty reason string for lines that
// should be skipped as malformed (non-fatal).
func validateSectionLine(sectionName, line string) string {
	if callStackSectionNames[sectionName] {
		trimmed := strings.TrimSpace(line)
		if !stackFrameCanonical.MatchString(trimmed) && !stackFrameFallback.MatchString(trimmed) {
			return "unrecognized stack-frame format, skipped"
		}
	}
	return ""
}

func normalizeSectionName(title string) string {
	title = strings.TrimSpace(title)
	title = strings.TrimSuffix(title, ":")
	title = strings.ToUpper(strings.TrimSpace(title))
	fields := strings.FieldsFunc(title, func(r rune) bool { return unicode.IsSpace(r) })
	return strings.Join(fields, " ")
}

func parseCallStack(lines []string, log *CrashLog) []StackFrame {
	frames := make([]StackFrame, 0, len(lines))
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := stackFrameCanonical.FindStringSubmatch(line); m != nil {
			idx := atoiSafe(m[1])
			frames = append(frames, StackFrame{
				Index:    idx,
				Address:  m[2],
				Module:   m[3],
				Function: m[4],
			})
			continue
		}

		if m := stackFrameFallback.FindStringSubmatch(line); m != nil {
			idx := atoiSafe(m[1])
			frames = append(frames, StackFrame{
				Index:   idx,
				Address: m[2],
				Module:  m[3],
			})
			continue
		}

		log.Warnings = append(log.Warnings, fmt.Sprintf("unparsed call-stack line: %q", line))
	}
	return frames
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func splitLines(text string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
