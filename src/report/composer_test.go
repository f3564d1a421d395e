package report

import (
	"strings"
	"testing"

	"scanner111/src/analyzer"
)

func resultWithLines(name string, lines ...string) *analyzer.Result {
	r := analyzer.NewResult(name)
	for _, l := range lines {
		r.AddLine(l)
	}
	return r
}

func TestCompose_JoinsSectionsWithRule(t *testing.T) {
	c := NewComposer()
	text := c.Compose([]*analyzer.Result{
		resultWithLines("a", "line one", "line two"),
		resultWithLines("b", "line three"),
	})

	if !strings.Contains(text, "line one") || !strings.Contains(text, "line three") {
		t.Fatalf("Compose() missing expected content: %q", text)
	}
	if !strings.Contains(text, sectionRule) {
		t.Fatalf("Compose() expected a section rule between analyzers, got %q", text)
	}
}

func TestCompose_SkipsEmptyResults(t *testing.T) {
	c := NewComposer()
	text := c.Compose([]*analyzer.Result{
		resultWithLines("a"),
		resultWithLines("b", "only line"),
	})
	if strings.Contains(text, sectionRule) {
		t.Fatalf("Compose() should not insert a rule when the preceding result had no lines, got %q", text)
	}
	if !strings.Contains(text, "only line") {
		t.Fatalf("Compose() missing expected content: %q", text)
	}
}

func TestCompose_FiltersOPCSubsection(t *testing.T) {
	c := NewComposer()
	r := resultWithLines("opc",
		"header",
		sectionRule,
		"CHECKING FOR MODS THAT ARE PATCHED THROUGH OPC INSTALLER",
		"ModA.esp",
		"ModB.esp",
		sectionRule,
		"footer",
	)
	text := c.Compose([]*analyzer.Result{r})

	if strings.Contains(text, "OPC INSTALLER") || strings.Contains(text, "ModA.esp") {
		t.Fatalf("Compose() should have dropped the OPC subsection, got %q", text)
	}
	if !strings.Contains(text, "header") || !strings.Contains(text, "footer") {
		t.Fatalf("Compose() should have kept surrounding content, got %q", text)
	}
}

func TestCompose_Empty(t *testing.T) {
	c := NewComposer()
	if text := c.Compose(nil); text != "" {
		t.Errorf("Compose(nil) = %q, want empty", text)
	}
}
