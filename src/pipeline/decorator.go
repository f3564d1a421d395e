package pipeline

import (
	"context"
	"fmt"

	"scanner111/src/analyzer"
)

// FcxDecorator wraps a ScanPipeline with an optional file-integrity (FCX)
// pre-pass. When disabled it is fully transparent.
type FcxDecorator struct {
	inner    *ScanPipeline
	fcx      *analyzer.FileIntegrityAnalyzer
	enabled  bool
	gameRoot string
}

// NewFcxDecorator wraps inner. If enabled is false, every call delegates
// straight through with no FCX work performed.
func NewFcxDecorator(inner *ScanPipeline, fcx *analyzer.FileIntegrityAnalyzer, enabled bool, gameRootPath string) *FcxDecorator {
	return &FcxDecorator{inner: inner, fcx: fcx, enabled: enabled, gameRoot: gameRootPath}
}

// ProcessSingle runs the FCX check once, then delegates, prepending the FCX
// finding to the result.
func (d *FcxDecorator) ProcessSingle(ctx context.Context, logPath string) (*ScanResult, error) {
	if !d.enabled {
		return d.inner.ProcessSingle(ctx, logPath)
	}

	fcxResult := d.runFcx()
	result, err := d.inner.ProcessSingle(ctx, logPath)
	if err != nil {
		return result, err
	}

	result.AnalysisResults = append([]*analyzer.Result{fcxResult.Result}, result.AnalysisResults...)
	if fcxResult.GameStatus == analyzer.Critical {
		result.ErrorMessages = append([]string{"FCX: game file integrity check reported Critical status"}, result.ErrorMessages...)
	}
	return result, nil
}

// ProcessBatch runs the FCX check once for the whole batch. If Critical, a
// synthetic ScanResult is emitted first; every subsequent result has the FCX
// finding merged in when there's something to report.
func (d *FcxDecorator) ProcessBatch(ctx context.Context, logPaths []string, options ScanOptions, progress ProgressSink) (<-chan *ScanResult, error) {
	if !d.enabled {
		return d.inner.ProcessBatch(ctx, logPaths, options, progress)
	}

	fcxResult := d.runFcx()

	inner, err := d.inner.ProcessBatch(ctx, logPaths, options, progress)
	if err != nil {
		return nil, err
	}

	out := make(chan *ScanResult)
	go func() {
		defer close(out)

		if fcxResult.GameStatus == analyzer.Critical {
			synthetic := &ScanResult{
				LogPath:       "FCX_CHECK",
				Status:        CompletedWithErrors,
				ErrorMessages: []string{"FCX: game file integrity check reported Critical status"},
			}
			select {
			case out <- synthetic:
			case <-ctx.Done():
				return
			}
		}

		for result := range inner {
			if fcxResult.Result.HasFindings {
				result.AnalysisResults = append([]*analyzer.Result{fcxResult.Result}, result.AnalysisResults...)
			}
			select {
			case out <- result:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (d *FcxDecorator) runFcx() *analyzer.FcxResult {
	fcx, err := d.fcx.Scan(d.gameRoot)
	if err != nil {
		fcx = &analyzer.FcxResult{Result: analyzer.NewResult("fileintegrity"), GameStatus: analyzer.Critical}
		fcx.AddError(fmt.Sprintf("fcx scan failed: %v", err))
	}
	return fcx
}
