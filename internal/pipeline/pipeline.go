package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/stegscan/internal/model"
)

// Step is one stage of an analysis. Steps run in order and share the
// Analysis; a step fills in its part of it.
type Step interface {
	// Do executes the step. An error is fatal for the analysis. Failures
	// that still allow a verdict are recorded in the evidence and Do
	// returns nil.
	Do(ctx context.Context, analysis *model.Analysis) error

	// Name identifies the step in PerformedSteps, timings and logs.
	Name() string
}

// Pipeline runs steps over one analysis and times each of them.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// continueOnError keeps running later steps after a fatal error.
	continueOnError bool

	// now is the clock used for step timings.
	now func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. A nil logger selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError runs the remaining steps after a step fails.
// The first error is still recorded in the analysis.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// WithClock sets the clock used for step timings.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in order over analysis.
//
// Every step that starts gets a StepTiming, failed steps included. A step
// that succeeds, or fails while continueOnError is set, is appended to
// PerformedSteps. Cancellation is checked between steps and recorded as the
// analysis error; steps bound their own work with ctx.
func (p *Pipeline) Execute(ctx context.Context, analysis *model.Analysis) error {
	log := p.logger.With("file", analysis.File.Name)

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			log.Warn("analysis cancelled", "before", step.Name(), "reason", err)
			analysis.Fail(err)
			return err
		}

		err := p.run(ctx, step, analysis, log)
		if err != nil {
			if !analysis.Failed() {
				analysis.Fail(err)
			}
			if !p.continueOnError {
				return err
			}
		}
		analysis.PerformedSteps = append(analysis.PerformedSteps, step.Name())
	}

	log.Debug("analysis finished", "duration_ms", analysis.Elapsed(), "failed", analysis.Failed())
	return nil
}

// run executes one step and records its timing.
func (p *Pipeline) run(ctx context.Context, step Step, analysis *model.Analysis, log *slog.Logger) error {
	start := p.now()
	err := step.Do(ctx, analysis)
	timing := model.StepTiming{
		Step:       step.Name(),
		DurationMS: p.now().Sub(start).Milliseconds(),
		Failed:     err != nil,
	}
	analysis.StepTimings = append(analysis.StepTimings, timing)

	if err != nil {
		log.Error("step failed", "step", timing.Step, "duration_ms", timing.DurationMS, "error", err)
	} else {
		log.Debug("step completed", "step", timing.Step, "duration_ms", timing.DurationMS)
	}
	return err
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
