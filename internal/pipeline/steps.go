package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/stegscan/internal/bitplane"
	"github.com/nao1215/stegscan/internal/detector"
	"github.com/nao1215/stegscan/internal/indicator"
	"github.com/nao1215/stegscan/internal/lsb"
	"github.com/nao1215/stegscan/internal/model"
	"github.com/nao1215/stegscan/internal/sample"
	"github.com/nao1215/stegscan/internal/scorer"
	"github.com/nao1215/stegscan/internal/verdict"
	"golang.org/x/sync/errgroup"
)

// Step names used in Analysis.PerformedSteps.
const (
	StepLoad       = "load"
	StepEvidence   = "evidence"
	StepLSB        = "lsb"
	StepAIScore    = "ai_score"
	StepBitPlanes  = "bitplanes"
	StepDetectors  = "detectors"
	StepIndicators = "indicators"
	StepVerdict    = "verdict"
)

// LoadStep reads and decodes the analyzed file.
// A decode failure is the only fatal error of an analysis.
type LoadStep struct {
	opts []sample.Option
}

// NewLoadStep creates a load step with the given decode options.
func NewLoadStep(opts ...sample.Option) *LoadStep {
	return &LoadStep{opts: opts}
}

// Name returns the step name.
func (s *LoadStep) Name() string { return StepLoad }

// Do executes the load step.
func (s *LoadStep) Do(_ context.Context, a *model.Analysis) error {
	info, smp, err := sample.Load(a.File.Path, s.opts...)
	a.File = info
	if err != nil {
		return err
	}
	a.Sample = smp
	return nil
}

// LSBStep computes the LSB statistic.
type LSBStep struct{}

// NewLSBStep creates an LSB step.
func NewLSBStep() *LSBStep { return &LSBStep{} }

// Name returns the step name.
func (s *LSBStep) Name() string { return StepLSB }

// Do executes the LSB step. It is a no-op without a decoded sample.
func (s *LSBStep) Do(_ context.Context, a *model.Analysis) error {
	if a.Sample == nil {
		return nil
	}
	stat := lsb.Analyze(a.Sample)
	a.Evidence.LSB = &stat
	return nil
}

// ScoreStep asks the anomaly scorer for a score.
type ScoreStep struct {
	scorer scorer.Scorer
	logger *slog.Logger
}

// NewScoreStep creates a score step. A nil scorer yields the neutral score.
func NewScoreStep(sc scorer.Scorer, logger *slog.Logger) *ScoreStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoreStep{scorer: sc, logger: logger}
}

// Name returns the step name.
func (s *ScoreStep) Name() string { return StepAIScore }

// Do executes the score step. It is a no-op without a decoded sample.
func (s *ScoreStep) Do(ctx context.Context, a *model.Analysis) error {
	if a.Sample == nil {
		return nil
	}
	score := scorer.Safe(ctx, s.scorer, a.Sample, s.logger)
	a.Evidence.AIScore = &score
	return nil
}

// BitPlaneStep renders the bit-plane artifacts.
type BitPlaneStep struct {
	decomposer *bitplane.Decomposer
}

// NewBitPlaneStep creates a bit-plane step.
func NewBitPlaneStep(d *bitplane.Decomposer) *BitPlaneStep {
	return &BitPlaneStep{decomposer: d}
}

// Name returns the step name.
func (s *BitPlaneStep) Name() string { return StepBitPlanes }

// Do executes the bit-plane step. Artifact failures are recorded in the
// evidence, never returned.
func (s *BitPlaneStep) Do(ctx context.Context, a *model.Analysis) error {
	if a.Sample == nil {
		return nil
	}
	set := s.decomposer.Decompose(ctx, a.Sample)
	a.Evidence.BitPlanes = &set
	return nil
}

// DetectorStep runs the external detectors against the analyzed file.
type DetectorStep struct {
	detectors   []detector.Detector
	concurrency int
	logger      *slog.Logger
}

// NewDetectorStep creates a detector step running at most concurrency detectors at once.
func NewDetectorStep(detectors []detector.Detector, concurrency int, logger *slog.Logger) *DetectorStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &DetectorStep{detectors: detectors, concurrency: concurrency, logger: logger}
}

// Name returns the step name.
func (s *DetectorStep) Name() string { return StepDetectors }

// Do executes the detector step. It is a no-op without a decoded sample.
func (s *DetectorStep) Do(ctx context.Context, a *model.Analysis) error {
	if a.Sample == nil {
		return nil
	}
	a.Evidence.Detectors = detector.RunAll(ctx, s.detectors, a.File.Path, s.concurrency, s.logger)
	return nil
}

// ConcurrentStep runs child steps in parallel and waits for all of them.
// Children must write disjoint parts of the analysis.
type ConcurrentStep struct {
	name  string
	steps []Step
}

// NewConcurrentStep creates a step running steps in parallel.
func NewConcurrentStep(name string, steps ...Step) *ConcurrentStep {
	return &ConcurrentStep{name: name, steps: steps}
}

// Name returns the step name.
func (s *ConcurrentStep) Name() string { return s.name }

// Steps returns the child step names.
func (s *ConcurrentStep) Steps() []string {
	names := make([]string, len(s.steps))
	for i, step := range s.steps {
		names[i] = step.Name()
	}
	return names
}

// Do executes every child and joins their errors. A failing child does not
// cancel its siblings.
func (s *ConcurrentStep) Do(ctx context.Context, a *model.Analysis) error {
	errs := make([]error, len(s.steps))

	var g errgroup.Group
	for i, step := range s.steps {
		g.Go(func() error {
			if err := step.Do(ctx, a); err != nil {
				errs[i] = fmt.Errorf("%s: %w", step.Name(), err)
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // children report through errs

	return errors.Join(errs...)
}

// IndicatorStep scans detector output and metadata for sensitive artifacts.
// It runs after the evidence step since it reads the detector results.
type IndicatorStep struct {
	scanner *indicator.Scanner
}

// NewIndicatorStep creates an indicator step.
func NewIndicatorStep(scanner *indicator.Scanner) *IndicatorStep {
	return &IndicatorStep{scanner: scanner}
}

// Name returns the step name.
func (s *IndicatorStep) Name() string { return StepIndicators }

// Do executes the indicator step. It is a no-op without a decoded sample.
func (s *IndicatorStep) Do(_ context.Context, a *model.Analysis) error {
	if a.Sample == nil {
		return nil
	}
	a.Evidence.Indicators = s.scanner.ScanEvidence(a.Evidence, a.Sample.Metadata)
	return nil
}

// VerdictStep evaluates the rule table over the collected evidence.
type VerdictStep struct {
	engine *verdict.Engine
}

// NewVerdictStep creates a verdict step.
func NewVerdictStep(engine *verdict.Engine) *VerdictStep {
	return &VerdictStep{engine: engine}
}

// Name returns the step name.
func (s *VerdictStep) Name() string { return StepVerdict }

// Do executes the verdict step. Without a decoded sample there is no verdict.
func (s *VerdictStep) Do(_ context.Context, a *model.Analysis) error {
	if a.Sample == nil {
		return nil
	}
	v := s.engine.Evaluate(a.Evidence)
	a.Verdict = &v
	return nil
}

// DefaultPipelineConfig holds the collaborators of the default pipeline.
type DefaultPipelineConfig struct {
	// Detectors are run by the detectors step. Nil selects the built-in catalog.
	Detectors []detector.Detector

	// DetectorConcurrency bounds concurrently running detectors.
	DetectorConcurrency int

	// Decomposer renders bit planes. Nil writes to a temporary directory.
	Decomposer *bitplane.Decomposer

	// Scorer is the anomaly scorer. Nil selects the placeholder scorer.
	Scorer scorer.Scorer

	// Engine evaluates the verdict. Nil selects the default rule table.
	Engine *verdict.Engine

	// Indicators scans for sensitive artifacts. Nil selects the built-in patterns.
	Indicators *indicator.Scanner

	// SampleOptions are passed to the decoder.
	SampleOptions []sample.Option

	// Logger is used by the steps.
	Logger *slog.Logger
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineDetectors sets the detectors.
func WithPipelineDetectors(detectors []detector.Detector) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Detectors = detectors
	}
}

// WithPipelineDetectorConcurrency sets the detector concurrency.
func WithPipelineDetectorConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.DetectorConcurrency = n
	}
}

// WithPipelineDecomposer sets the bit-plane decomposer.
func WithPipelineDecomposer(d *bitplane.Decomposer) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Decomposer = d
	}
}

// WithPipelineScorer sets the anomaly scorer.
func WithPipelineScorer(sc scorer.Scorer) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Scorer = sc
	}
}

// WithPipelineEngine sets the verdict engine.
func WithPipelineEngine(e *verdict.Engine) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Engine = e
	}
}

// WithPipelineIndicatorScanner sets the indicator scanner.
func WithPipelineIndicatorScanner(sc *indicator.Scanner) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Indicators = sc
	}
}

// WithPipelineSampleOptions sets the decode options.
func WithPipelineSampleOptions(opts ...sample.Option) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.SampleOptions = opts
	}
}

// WithPipelineLogger sets the logger used by the steps.
func WithPipelineLogger(logger *slog.Logger) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Logger = logger
	}
}

// DefaultPipeline creates the standard analysis pipeline:
// load, then the concurrent evidence step, then indicators and verdict.
//
// The first parameter accepts pipeline options (WithLogger, etc).
// The variadic parameter accepts collaborator options (WithPipelineDetectors, etc).
func DefaultPipeline(pipelineOpts []Option, configOpts ...DefaultPipelineOption) (*Pipeline, error) {
	cfg := &DefaultPipelineConfig{
		DetectorConcurrency: detector.DefaultConcurrency,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Detectors == nil {
		cmds, err := detector.Build(detector.DefaultSpecs(), detector.WithLogger(cfg.Logger))
		if err != nil {
			return nil, fmt.Errorf("failed to build detectors: %w", err)
		}
		cfg.Detectors = detector.AsDetectors(cmds)
	}
	if cfg.Decomposer == nil {
		cfg.Decomposer = bitplane.NewDecomposer(
			filepath.Join(os.TempDir(), "stegscan", "bitplanes"),
			bitplane.WithLogger(cfg.Logger),
		)
	}
	if cfg.Scorer == nil {
		cfg.Scorer = scorer.NewPlaceholder()
	}
	if cfg.Indicators == nil {
		cfg.Indicators = indicator.NewScanner()
	}
	if cfg.Engine == nil {
		engine, err := verdict.NewEngine(verdict.DefaultRules(), verdict.WithLogger(cfg.Logger))
		if err != nil {
			return nil, fmt.Errorf("failed to build verdict engine: %w", err)
		}
		cfg.Engine = engine
	}

	p := New(pipelineOpts...)
	p.AddSteps(
		NewLoadStep(cfg.SampleOptions...),
		NewConcurrentStep(StepEvidence,
			NewLSBStep(),
			NewScoreStep(cfg.Scorer, cfg.Logger),
			NewBitPlaneStep(cfg.Decomposer),
			NewDetectorStep(cfg.Detectors, cfg.DetectorConcurrency, cfg.Logger),
		),
		NewIndicatorStep(cfg.Indicators),
		NewVerdictStep(cfg.Engine),
	)
	return p, nil
}
