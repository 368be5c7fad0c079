package detector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/stegscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of detectors run at once by default.
const DefaultConcurrency = 4

// RunAll runs every detector against path with at most concurrency running
// at once and waits for all of them. The result holds one entry per
// detector, in the order of detectors.
func RunAll(ctx context.Context, detectors []Detector, path string, concurrency int, logger *slog.Logger) *model.DetectorResults {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]model.DetectorResult, len(detectors))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, d := range detectors {
		g.Go(func() error {
			results[i] = detectSafely(ctx, d, path, logger)
			// Failures are data; returning nil keeps the other detectors running.
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines never return errors

	out := model.NewDetectorResults()
	for i, d := range detectors {
		out.Set(d.Name(), results[i])
	}
	return out
}

// detectSafely runs one detector, converting a panic into StatusError.
func detectSafely(ctx context.Context, d Detector, path string, logger *slog.Logger) (result model.DetectorResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("detector panicked", "detector", d.Name(), "panic", fmt.Sprint(r))
			result = model.DetectorResult{
				Status:   model.StatusError,
				Error:    fmt.Sprintf("%s: %v", model.ErrDetectorRuntime, r),
				ExitCode: -1,
			}
		}
	}()
	return d.Detect(ctx, path)
}

// AsDetectors converts command detectors to the Detector interface.
func AsDetectors(cmds []*CommandDetector) []Detector {
	out := make([]Detector, len(cmds))
	for i, c := range cmds {
		out[i] = c
	}
	return out
}
