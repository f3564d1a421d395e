// Package main provides the crashlogctl CLI, the desktop entry point for
// scanning Bethesda-game crash logs.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"scanner111/src/analyzer"
	"scanner111/src/config"
	"scanner111/src/logger"
	"scanner111/src/pipeline"
	"scanner111/src/report"
	"scanner111/src/severity"
	"scanner111/src/store"
)

var rootCmd = &cobra.Command{
	Use:   "crashlogctl",
	Short: "crashlogctl triages Bethesda-game crash logs",
	Long: `crashlogctl parses Fallout 4 / Skyrim crash logs, runs a suite of
analyzers over each one, and produces a diagnostic report identifying
probable causes: offending plugins, modified records, known-crash
signatures, file-integrity deviations, and mod conflicts.`,
}

var scanCmd = &cobra.Command{
	Use:   "scan <log-path>",
	Short: "Scan a single crash log and print its diagnostic report",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
			os.Exit(1)
		}

		noColor, _ := cmd.Flags().GetBool("no-color")
		gameRoot, _ := cmd.Flags().GetString("game-root")

		p, err := buildPipeline(cfg, gameRoot)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

		result, err := p.ProcessSingle(context.Background(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
			os.Exit(1)
		}

		printReport(result.ReportText, noColor)
		if result.Status == pipeline.Failed {
			os.Exit(1)
		}
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch <log-path> [log-path...]",
	Short: "Scan multiple crash logs concurrently and print a summary",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
			os.Exit(1)
		}

		gameRoot, _ := cmd.Flags().GetString("game-root")

		p, err := buildPipeline(cfg, gameRoot)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

		options := pipeline.ScanOptions{
			MaxConcurrency: cfg.MaxConcurrency,
			EnableCaching:  cfg.EnableCaching,
			PreserveOrder:  cfg.PreserveOrder,
			Timeout:        cfg.ScanTimeout,
		}

		sink := pipeline.ProgressSinkFunc(func(p pipeline.BatchProgress) {
			fmt.Fprintf(os.Stderr, "\rScanned %d/%d (%d ok, %d failed) — %.1f files/sec",
				p.Processed, p.Total, p.Successful, p.Failed, p.FilesPerSecond)
		})

		ch, err := p.ProcessBatch(context.Background(), args, options, sink)
		if err != nil {
			fmt.Fprintf(os.Stderr, "batch scan failed: %v\n", err)
			os.Exit(1)
		}

		var failures int
		for result := range ch {
			if result.Status == pipeline.Failed || result.Status == pipeline.CompletedWithErrors {
				failures++
			}
		}
		fmt.Fprintln(os.Stderr)
		if failures > 0 {
			os.Exit(1)
		}
	},
}

// buildPipeline wires an analyzer set, cache, and optional FCX decorator
// into a ready-to-use pipeline, per the resolved config.
func buildPipeline(cfg *config.Config, gameRoot string) (*scanPipeline, error) {
	log := logger.NewConsoleLogger()

	analyzers, err := analyzer.Build(log)
	if err != nil {
		return nil, fmt.Errorf("building analyzers: %w", err)
	}

	base := pipeline.New(analyzers, log, cfg.EnableCaching)

	var historyStore store.ScanHistoryStore
	if cfg.ScanHistoryDSN != "" {
		pgStore, err := store.NewPostgresStore(context.Background(), cfg.ScanHistoryDSN)
		if err != nil {
			return nil, fmt.Errorf("connecting scan history store: %w", err)
		}
		historyStore = pgStore
	} else {
		historyStore = store.NewInMemoryStore(0)
	}

	if !cfg.FcxEnabled {
		return &scanPipeline{inner: base, history: historyStore}, nil
	}

	fcx := analyzer.NewFileIntegrityAnalyzer(log)
	decorated := pipeline.NewFcxDecorator(base, fcx, true, gameRoot)
	return &scanPipeline{decorator: decorated, history: historyStore}, nil
}

// scanPipeline picks between the undecorated and FCX-decorated pipeline at
// call time, since the two don't share a common interface type.
type scanPipeline struct {
	inner     *pipeline.ScanPipeline
	decorator *pipeline.FcxDecorator
	history   store.ScanHistoryStore
}

func (s *scanPipeline) ProcessSingle(ctx context.Context, path string) (*pipeline.ScanResult, error) {
	var result *pipeline.ScanResult
	var err error
	if s.decorator != nil {
		result, err = s.decorator.ProcessSingle(ctx, path)
	} else {
		result, err = s.inner.ProcessSingle(ctx, path)
	}
	if err == nil && result != nil {
		s.notifyHistory(ctx, result)
	}
	return result, err
}

func (s *scanPipeline) ProcessBatch(ctx context.Context, paths []string, opts pipeline.ScanOptions, sink pipeline.ProgressSink) (<-chan *pipeline.ScanResult, error) {
	var inner <-chan *pipeline.ScanResult
	var err error
	if s.decorator != nil {
		inner, err = s.decorator.ProcessBatch(ctx, paths, opts, sink)
	} else {
		inner, err = s.inner.ProcessBatch(ctx, paths, opts, sink)
	}
	if err != nil {
		return nil, err
	}

	out := make(chan *pipeline.ScanResult)
	go func() {
		defer close(out)
		for result := range inner {
			s.notifyHistory(ctx, result)
			out <- result
		}
	}()
	return out, nil
}

// notifyHistory records a completed scan in the history store. The store is
// a trend-tracking observer, never consulted by the pipeline itself.
func (s *scanPipeline) notifyHistory(ctx context.Context, result *pipeline.ScanResult) {
	if s.history == nil {
		return
	}
	summary := store.ScanSummary{
		LogPath:       result.LogPath,
		ScannedAt:     time.Now(),
		Status:        result.Status,
		SeverityLevel: highestSeverityLevel(result.AnalysisResults).String(),
		FindingsCount: countFindings(result.AnalysisResults),
	}
	if err := s.history.Store(ctx, summary); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to record scan history: %v\n", err)
	}
}

func highestSeverityLevel(results []*analyzer.Result) severity.Level {
	highest := severity.None
	for _, r := range results {
		for _, v := range r.Data {
			assessment, ok := v.(severity.Assessment)
			if !ok {
				continue
			}
			if assessment.Level > highest {
				highest = assessment.Level
			}
		}
	}
	return highest
}

func countFindings(results []*analyzer.Result) int {
	count := 0
	for _, r := range results {
		if r.HasFindings {
			count++
		}
	}
	return count
}

func printReport(text string, noColor bool) {
	if noColor {
		fmt.Println(text)
		return
	}
	fmt.Println(report.DefaultPalette().Colorize(text))
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(batchCmd)

	scanCmd.Flags().Bool("no-color", false, "disable colorized report output")
	scanCmd.Flags().String("game-root", "", "path to the game installation root, for FCX file-integrity checks")
	batchCmd.Flags().String("game-root", "", "path to the game installation root, for FCX file-integrity checks")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
