package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/stegscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of files analyzed at once.
const DefaultConcurrency = 4

// ProgressFunc is called after each finished analysis with the number of
// finished analyses so far and the batch size. Calls are serialized.
type ProgressFunc func(done, total int, analysis *model.Analysis)

// BatchProcessor analyzes several files with bounded concurrency.
// Every file gets its own pipeline from the factory.
type BatchProcessor struct {
	pipelineFactory func() *Pipeline
	concurrency     int
	logger          *slog.Logger
	progress        ProgressFunc
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the number of files analyzed at once.
// Values below 1 keep DefaultConcurrency.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithProgress sets a callback invoked after each finished analysis.
func WithProgress(fn ProgressFunc) BatchOption {
	return func(b *BatchProcessor) {
		b.progress = fn
	}
}

// NewBatchProcessor creates a BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch analyzes paths and returns one analysis per path in input
// order. A failed analysis is an entry with its error set; it never stops
// the other files.
//
// The error is non-nil only when ctx ends before the batch does. Entries
// of files that had not started are nil in that case.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, paths []string) ([]*model.Analysis, error) {
	start := time.Now()
	bp.logger.Info("starting batch", "files", len(paths), "concurrency", bp.concurrency)

	results := make([]*model.Analysis, len(paths))

	var (
		mu   sync.Mutex
		done int
	)
	finished := func(a *model.Analysis) {
		if bp.progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		bp.progress(done, len(paths), a)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			a := model.NewAnalysis(path)
			if err := bp.pipelineFactory().Execute(gctx, a); err != nil {
				bp.logger.Warn("analysis failed", "file", path, "error", err)
			}
			results[i] = a
			finished(a)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	bp.logger.Info("batch complete", "files", len(paths), "elapsed", time.Since(start))
	return results, err
}
