package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"scanner111/src/analyzer"
	"scanner111/src/logger"
)

func TestFcxDecorator_DisabledIsTransparent(t *testing.T) {
	path := writeSampleLog(t)
	inner := New([]analyzer.Analyzer{okAnalyzer("a", 1, false)}, logger.NewSilentLogger(), false)
	d := NewFcxDecorator(inner, analyzer.NewFileIntegrityAnalyzer(logger.NewSilentLogger()), false, "")

	result, err := d.ProcessSingle(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessSingle() error = %v", err)
	}
	if len(result.AnalysisResults) != 1 {
		t.Fatalf("AnalysisResults len = %d, want 1 (FCX disabled should add nothing)", len(result.AnalysisResults))
	}
}

func TestFcxDecorator_ProcessSingle_PrependsFindingAndWarnsOnCritical(t *testing.T) {
	path := writeSampleLog(t)
	inner := New([]analyzer.Analyzer{okAnalyzer("a", 1, false)}, logger.NewSilentLogger(), false)
	d := NewFcxDecorator(inner, analyzer.NewFileIntegrityAnalyzer(logger.NewSilentLogger()), true, "/definitely/does/not/exist")

	result, err := d.ProcessSingle(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessSingle() error = %v", err)
	}
	if len(result.AnalysisResults) != 2 {
		t.Fatalf("AnalysisResults len = %d, want 2 (FCX + inner)", len(result.AnalysisResults))
	}
	if result.AnalysisResults[0].AnalyzerName != "fileintegrity" {
		t.Errorf("AnalysisResults[0] = %q, want fileintegrity first", result.AnalysisResults[0].AnalyzerName)
	}
	if len(result.ErrorMessages) == 0 {
		t.Error("expected a prepended warning for a Critical GameStatus")
	}
}

func TestFcxDecorator_ProcessBatch_EmitsSyntheticCheckOnCritical(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.log")
	if err := os.WriteFile(path, []byte(sampleLog), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	inner := New([]analyzer.Analyzer{okAnalyzer("a", 1, false)}, logger.NewSilentLogger(), false)
	d := NewFcxDecorator(inner, analyzer.NewFileIntegrityAnalyzer(logger.NewSilentLogger()), true, "/definitely/does/not/exist")

	ch, err := d.ProcessBatch(context.Background(), []string{path}, ScanOptions{MaxConcurrency: 1}, nil)
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}

	var results []*ScanResult
	for r := range ch {
		results = append(results, r)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (synthetic FCX_CHECK + the real scan)", len(results))
	}
	if results[0].LogPath != "FCX_CHECK" {
		t.Errorf("results[0].LogPath = %q, want FCX_CHECK", results[0].LogPath)
	}
	if results[0].Status != CompletedWithErrors {
		t.Errorf("results[0].Status = %v, want CompletedWithErrors", results[0].Status)
	}
}
