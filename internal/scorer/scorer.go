// Package scorer defines the anomaly scorer collaborator and a
// deterministic placeholder implementation.
//
// A Scorer inspects pixel data and returns a score in [0,100] with a
// confidence label. Callers go through Safe, which never fails: errors and
// panics from the scorer become the Neutral score.
package scorer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/nao1215/stegscan/internal/model"
)

// Scorer scores a sample for pixel-level anomalies.
type Scorer interface {
	// Score returns the anomaly score for s.
	Score(ctx context.Context, s *model.ImageSample) (model.AIScore, error)
}

// Neutral returns the score reported when the scorer is unavailable.
func Neutral() model.AIScore {
	return model.AIScore{
		Score:        0,
		Confidence:   "Low",
		ModelVersion: "unavailable",
	}
}

// Safe calls sc and converts any failure into Neutral.
// The returned score is clamped to [0,100].
func Safe(ctx context.Context, sc Scorer, s *model.ImageSample, logger *slog.Logger) (score model.AIScore) {
	if logger == nil {
		logger = slog.Default()
	}
	if sc == nil {
		return Neutral()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("anomaly scorer panicked", "panic", fmt.Sprint(r))
			score = Neutral()
		}
	}()

	score, err := sc.Score(ctx, s)
	if err != nil {
		logger.Warn("anomaly scorer failed", "error", err)
		return Neutral()
	}

	score.Score = max(0, min(score.Score, 100))
	return score
}

// PlaceholderModelVersion identifies scores produced by Placeholder.
const PlaceholderModelVersion = "pixelmean-placeholder-v1"

// Placeholder is a stand-in scorer. It derives a pseudo-random score in
// [10,90] from the mean pixel value, so the same image always gets the
// same score. It carries no detection capability.
type Placeholder struct{}

// NewPlaceholder creates a Placeholder scorer.
func NewPlaceholder() *Placeholder {
	return &Placeholder{}
}

// Score implements Scorer.
func (p *Placeholder) Score(ctx context.Context, s *model.ImageSample) (model.AIScore, error) {
	if err := ctx.Err(); err != nil {
		return model.AIScore{}, err
	}
	if s == nil || s.Components() == 0 {
		return model.AIScore{}, fmt.Errorf("%w: empty sample", model.ErrDetectorRuntime)
	}

	var sum uint64
	s.EachComponent(func(v uint8) {
		sum += uint64(v)
	})
	mean := float64(sum) / float64(s.Components())
	seed := uint64(mean * 100)

	rng := rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // not used for security
	return model.AIScore{
		Score:        rng.IntN(81) + 10,
		Confidence:   "High",
		ModelVersion: PlaceholderModelVersion,
	}, nil
}
