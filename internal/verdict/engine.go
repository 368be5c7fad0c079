package verdict

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/nao1215/stegscan/internal/model"
)

// Trigger reports whether rule holds for the evidence.
// For rules naming a detector, the engine only calls the trigger when that
// detector's result exists and its status ran.
type Trigger func(rule Rule, evidence *model.EvidenceSet, result model.DetectorResult) bool

// Thresholds are the inclusive upper bounds of the Safe and Suspicious classes.
type Thresholds struct {
	SafeMax       int
	SuspiciousMax int
}

// DefaultThresholds returns Safe <= 30 < Suspicious <= 70 < Highly Suspicious.
func DefaultThresholds() Thresholds {
	return Thresholds{SafeMax: 30, SuspiciousMax: 70}
}

// Validate checks the ordering of the thresholds.
func (t Thresholds) Validate() error {
	if t.SafeMax < 0 || t.SafeMax >= t.SuspiciousMax || t.SuspiciousMax > 100 {
		return ErrThresholds
	}
	return nil
}

// MaxScore is the upper bound of a verdict score.
const MaxScore = 100

// Classify maps a score to a classification.
func Classify(score int, t Thresholds) model.Classification {
	switch {
	case score <= t.SafeMax:
		return model.ClassificationSafe
	case score <= t.SuspiciousMax:
		return model.ClassificationSuspicious
	default:
		return model.ClassificationHighlySuspicious
	}
}

// Engine evaluates a rule table.
type Engine struct {
	// rules is the table in evaluation order.
	rules []Rule

	// thresholds classify the final score.
	thresholds Thresholds

	// triggers maps kinds to their conditions.
	triggers map[Kind]Trigger

	// logger is used for debug output.
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithThresholds sets the classification thresholds.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = t
	}
}

// WithTrigger registers or replaces the condition of a rule kind.
// A nil trigger is ignored.
func WithTrigger(kind Kind, trigger Trigger) Option {
	return func(e *Engine) {
		if trigger == nil {
			return
		}
		e.triggers[kind] = trigger
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// builtinTriggers returns the conditions of the built-in kinds.
func builtinTriggers() map[Kind]Trigger {
	return map[Kind]Trigger{
		KindLSB: func(_ Rule, e *model.EvidenceSet, _ model.DetectorResult) bool {
			return e.LSB != nil && e.LSB.Level != model.SuspicionLow
		},
		KindAIScore: func(r Rule, e *model.EvidenceSet, _ model.DetectorResult) bool {
			return e.AIScore != nil && e.AIScore.Score > r.Threshold
		},
		KindFindings: func(r Rule, _ *model.EvidenceSet, d model.DetectorResult) bool {
			return d.Status == r.Status && d.Payload.FindingCount >= max(r.MinFindings, 1)
		},
		KindStatus: func(r Rule, _ *model.EvidenceSet, d model.DetectorResult) bool {
			return d.Status == r.Status
		},
		KindLineCount: func(r Rule, _ *model.EvidenceSet, d model.DetectorResult) bool {
			return d.Status == r.Status && d.Payload.LineCount > r.Threshold
		},
		KindIndicators: func(r Rule, e *model.EvidenceSet, _ model.DetectorResult) bool {
			return indicatorCount(r, e) >= max(r.MinFindings, 1)
		},
	}
}

// NewEngine validates rules and creates an Engine.
func NewEngine(rules []Rule, opts ...Option) (*Engine, error) {
	e := &Engine{
		rules:      slices.Clone(rules),
		thresholds: DefaultThresholds(),
		triggers:   builtinTriggers(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	if err := e.thresholds.Validate(); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(e.rules))
	for _, r := range e.rules {
		if err := r.validate(e.triggers); err != nil {
			return nil, err
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("%w %q", ErrDuplicate, r.Name)
		}
		seen[r.Name] = true
	}
	return e, nil
}

// Rules returns a copy of the rule table.
func (e *Engine) Rules() []Rule {
	return slices.Clone(e.rules)
}

// Thresholds returns the classification thresholds.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Kinds returns the registered kinds, sorted.
func (e *Engine) Kinds() []Kind {
	return slices.Sorted(maps.Keys(e.triggers))
}

// Evaluate applies the rule table to the evidence. It is deterministic and
// always returns a verdict; missing signals simply do not trigger.
func (e *Engine) Evaluate(evidence *model.EvidenceSet) model.Verdict {
	if evidence == nil {
		evidence = model.NewEvidenceSet()
	}

	total := 0
	reasons := make([]string, 0, len(e.rules))
	contributions := make([]model.Contribution, 0, len(e.rules))

	for _, r := range e.rules {
		if !e.triggered(r, evidence) {
			continue
		}
		total += r.Weight
		reasons = append(reasons, r.reason(evidence))
		contributions = append(contributions, model.Contribution{Rule: r.Name, Weight: r.Weight})

		e.logger.Debug("rule triggered", "rule", r.Name, "weight", r.Weight)
	}

	score := max(0, min(total, MaxScore))
	if len(reasons) == 0 {
		reasons = append(reasons, model.NoAnomaliesReason)
	}

	return model.Verdict{
		Score:          score,
		Classification: Classify(score, e.thresholds),
		Reasons:        reasons,
		Contributions:  contributions,
	}
}

// triggered runs the trigger of r, gating detector rules on a ran status.
// Indicator rules use Detector as a source filter, which may be metadata.
func (e *Engine) triggered(r Rule, evidence *model.EvidenceSet) bool {
	trigger := e.triggers[r.Kind]

	var result model.DetectorResult
	if r.Detector != "" && r.Kind != KindIndicators {
		var ok bool
		result, ok = evidence.Detectors.Get(r.Detector)
		if !ok || !result.Status.Ran() {
			return false
		}
	}
	return trigger(r, evidence, result)
}
