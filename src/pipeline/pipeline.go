package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"scanner111/src/analyzer"
	"scanner111/src/cache"
	"scanner111/src/crashlog"
	"scanner111/src/logger"
	"scanner111/src/report"
	"scanner111/src/resilience"
)

// ScanPipeline orchestrates single-log and batch-log crash-log analysis.
type ScanPipeline struct {
	analyzers []analyzer.Analyzer
	cache     *cache.AnalysisResultCache
	executor  *resilience.Executor
	composer  *report.Composer
	log       logger.Logger

	enableCaching bool
}

// New constructs a ScanPipeline from a pre-built analyzer set (ordered by
// priority; see analyzer.Build).
func New(analyzers []analyzer.Analyzer, log logger.Logger, enableCaching bool) *ScanPipeline {
	return &ScanPipeline{
		analyzers:     analyzers,
		cache:         cache.New(),
		executor:      resilience.New(log),
		composer:      report.NewComposer(),
		log:           log,
		enableCaching: enableCaching,
	}
}

// ProcessSingle parses and analyzes one crash log.
func (p *ScanPipeline) ProcessSingle(ctx context.Context, logPath string) (*ScanResult, error) {
	return p.processSingle(ctx, logPath, 0)
}

// processSingle is ProcessSingle's implementation, additionally accepting
// maxParallel, the intra-log analyzer fan-out cap (ScanOptions.
// MaxDegreeOfParallelism); 0 means unbounded. ProcessBatch calls this
// directly so a batch-wide cap applies per log.
func (p *ScanPipeline) processSingle(ctx context.Context, logPath string, maxParallel int) (*ScanResult, error) {
	start := time.Now()
	result := &ScanResult{LogPath: logPath, Status: InProgress}

	log, err := resilience.Run(ctx, resilience.New(p.log, resilience.WithMaxRetries(1)), "parse:"+logPath, func(ctx context.Context) (*crashlog.CrashLog, error) {
		return crashlog.Parse(logPath)
	})
	if err != nil {
		if ctx.Err() != nil {
			result.Status = Cancelled
		} else {
			result.Status = Failed
		}
		result.ErrorMessages = append(result.ErrorMessages, err.Error())
		result.ProcessingTime = time.Since(start)
		return result, nil
	}
	result.CrashLog = log

	var sequential, parallel []analyzer.Analyzer
	for _, a := range p.analyzers {
		if a.CanRunInParallel() {
			parallel = append(parallel, a)
		} else {
			sequential = append(sequential, a)
		}
	}

	for _, a := range sequential {
		r := p.runAnalyzer(ctx, a, log)
		result.AnalysisResults = append(result.AnalysisResults, r)
	}

	if ctx.Err() != nil {
		result.Status = Cancelled
		result.CrashLog = nil
		result.ProcessingTime = time.Since(start)
		return result, nil
	}

	if len(parallel) > 0 {
		result.AnalysisResults = append(result.AnalysisResults, p.runParallelAnalyzers(ctx, parallel, log, maxParallel)...)
	}

	log.ReleaseRawLines()
	result.CrashLog = nil

	var hasErrors bool
	for _, r := range result.AnalysisResults {
		if !r.Success {
			hasErrors = true
			result.ErrorMessages = append(result.ErrorMessages, r.Errors...)
		}
	}

	result.ReportText = p.composer.Compose(result.AnalysisResults)

	switch {
	case ctx.Err() != nil:
		result.Status = Cancelled
	case hasErrors:
		result.Status = CompletedWithErrors
	default:
		result.Status = Completed
	}
	result.ProcessingTime = time.Since(start)
	return result, nil
}

func (p *ScanPipeline) runAnalyzer(ctx context.Context, a analyzer.Analyzer, log *crashlog.CrashLog) *analyzer.Result {
	if p.enableCaching {
		if cached, ok := p.cache.Get(log.FilePath, a.Name()); ok {
			return cached
		}
	}

	r, err := resilience.Run(ctx, p.executor, a.Name()+":"+log.FilePath, func(ctx context.Context) (*analyzer.Result, error) {
		return a.Analyze(ctx, log)
	})
	if err != nil {
		r = analyzer.NewResult(a.Name())
		r.AddError(err.Error())
		return r
	}

	if p.enableCaching {
		p.cache.Put(log.FilePath, a.Name(), r)
	}
	return r
}

// runParallelAnalyzers fans parallel out concurrently, each result landing
// at its analyzer's slice position (priority order) rather than completion
// order, so ReportComposer's section ordering stays stable regardless of
// which analyzer happens to finish first. maxParallel <= 0 means unbounded.
func (p *ScanPipeline) runParallelAnalyzers(ctx context.Context, parallel []analyzer.Analyzer, log *crashlog.CrashLog, maxParallel int) []*analyzer.Result {
	results := make([]*analyzer.Result, len(parallel))

	var sem *semaphore.Weighted
	if maxParallel > 0 {
		sem = semaphore.NewWeighted(int64(maxParallel))
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range parallel {
		i, a := i, a
		g.Go(func() error {
			if sem != nil {
				if err := sem.Acquire(gctx, 1); err != nil {
					r := analyzer.NewResult(a.Name())
					r.AddError(err.Error())
					results[i] = r
					return nil
				}
				defer sem.Release(1)
			}
			results[i] = p.runAnalyzer(gctx, a, log)
			return nil
		})
	}
	_ = g.Wait() // runAnalyzer never returns an error to the group; failures live in the Result
	return results
}

// ProcessBatch analyzes logPaths concurrently, bounded by options, streaming
// results to the returned channel as they complete (or, if PreserveOrder is
// set, in input order). progress may be nil.
func (p *ScanPipeline) ProcessBatch(ctx context.Context, logPaths []string, options ScanOptions, progress ProgressSink) (<-chan *ScanResult, error) {
	if progress == nil {
		progress = NoopProgressSink{}
	}
	sink := NewSerializingProgressSink(progress)
	batchID := uuid.NewString()

	maxConcurrency := options.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.NumCPU()
	}

	paths := dedupe(logPaths)
	total := len(paths)

	pathCh := make(chan string, len(paths))
	go func() {
		defer close(pathCh)
		for _, path := range paths {
			select {
			case pathCh <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	numWorkers := maxConcurrency
	if numWorkers > total {
		numWorkers = total
	}
	if numWorkers == 0 {
		out := make(chan *ScanResult)
		close(out)
		return out, nil
	}

	sem := semaphore.NewWeighted(int64(maxConcurrency))
	workerChans := make([]chan *ScanResult, numWorkers)

	var counters progressCounters
	start := time.Now()

	for i := 0; i < numWorkers; i++ {
		workerChans[i] = make(chan *ScanResult)
		go func(out chan<- *ScanResult) {
			defer close(out)
			for path := range pathCh {
				if err := sem.Acquire(ctx, 1); err != nil {
					return
				}

				logCtx := ctx
				var cancel context.CancelFunc
				if options.Timeout > 0 {
					logCtx, cancel = context.WithTimeout(ctx, options.Timeout)
				}
				result, _ := p.processSingle(logCtx, path, options.MaxDegreeOfParallelism)
				if cancel != nil {
					if logCtx.Err() == context.DeadlineExceeded {
						result.Status = CompletedWithErrors
						result.ErrorMessages = append(result.ErrorMessages, fmt.Sprintf("log scan timed out after %s", options.Timeout))
					}
					cancel()
				}
				sem.Release(1)
				result.BatchID = batchID

				counters.record(result)
				out <- result

				elapsed := time.Since(start)
				processed := counters.snapshot()
				processed.Elapsed = elapsed
				if elapsed > 0 {
					processed.FilesPerSecond = float64(processed.Processed) / elapsed.Seconds()
				}
				processed.Total = total
				if processed.FilesPerSecond > 0 {
					remaining := total - processed.Processed
					processed.EstimatedTimeRemaining = time.Duration(float64(remaining)/processed.FilesPerSecond) * time.Second
				}
				sink.OnProgress(processed)
			}
		}(workerChans[i])
	}

	out := make(chan *ScanResult)
	if options.PreserveOrder {
		go mergeOrdered(ctx, paths, workerChans, out)
	} else {
		go mergeStreaming(ctx, workerChans, out)
	}
	return out, nil
}

type progressCounters struct {
	mu                                         sync.Mutex
	processed, successful, failed, incomplete int
}

func (c *progressCounters) record(r *ScanResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processed++
	switch r.Status {
	case Completed:
		c.successful++
	case Failed, Cancelled:
		c.failed++
	default:
		c.incomplete++
	}
}

func (c *progressCounters) snapshot() BatchProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return BatchProgress{Processed: c.processed, Successful: c.successful, Failed: c.failed, Incomplete: c.incomplete}
}

// mergeStreaming reads one element ahead from every source channel, with no
// buffering beyond one element per source, and yields round-robin: it sends
// each source's held element in turn and then blocks on that same source for
// its next one. It does not yield whichever source finishes next, so a slow
// source delays results that other sources already have ready.
func mergeStreaming(ctx context.Context, sources []chan *ScanResult, out chan<- *ScanResult) {
	defer close(out)

	type slot struct {
		ch    chan *ScanResult
		value *ScanResult
		ok    bool
	}
	slots := make([]*slot, len(sources))
	for i, ch := range sources {
		slots[i] = &slot{ch: ch}
	}

	advance := func(s *slot) {
		s.value, s.ok = <-s.ch
	}
	for _, s := range slots {
		advance(s)
	}

	remaining := len(slots)
	for remaining > 0 {
		advanced := false
		for _, s := range slots {
			if !s.ok {
				continue
			}
			select {
			case out <- s.value:
			case <-ctx.Done():
				return
			}
			advance(s)
			if !s.ok {
				remaining--
			}
			advanced = true
		}
		if !advanced {
			break
		}
	}
}

// mergeOrdered collects every result from all sources before emitting any,
// then emits them in the original input-path order.
func mergeOrdered(ctx context.Context, paths []string, sources []chan *ScanResult, out chan<- *ScanResult) {
	defer close(out)

	byPath := make(map[string]*ScanResult)
	var mu sync.Mutex
	done := make(chan struct{})

	go func() {
		var wg int
		resultCh := make(chan *ScanResult)
		for _, ch := range sources {
			wg++
			go func(c chan *ScanResult) {
				for r := range c {
					resultCh <- r
				}
				mu.Lock()
				wg--
				finished := wg == 0
				mu.Unlock()
				if finished {
					close(resultCh)
				}
			}(ch)
		}
		for r := range resultCh {
			mu.Lock()
			byPath[r.LogPath] = r
			mu.Unlock()
		}
		close(done)
	}()
	<-done

	for _, path := range paths {
		if r, ok := byPath[path]; ok {
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}
}

// dedupe drops case-insensitive duplicate paths, keeping the first
// occurrence of each and otherwise preserving submission order — required
// for PreserveOrder's "releases them in submission order" guarantee.
func dedupe(paths []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
