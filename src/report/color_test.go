package report

import (
	"strings"
	"testing"
)

func TestColorize_KeepsTaggedAndUntaggedContent(t *testing.T) {
	p := DefaultPalette()
	text := "[Critical] something bad happened\nplain line\n[Warning] minor issue"
	out := p.Colorize(text)

	if !strings.Contains(out, "something bad happened") {
		t.Fatalf("Colorize() dropped content: %q", out)
	}
	if !strings.Contains(out, "plain line") {
		t.Fatalf("Colorize() should pass through untagged lines unchanged, got %q", out)
	}
}

func TestLeadingLevel_NoTagReturnsFalse(t *testing.T) {
	if _, ok := leadingLevel("just some text"); ok {
		t.Error("leadingLevel() should return false for an untagged line")
	}
}
