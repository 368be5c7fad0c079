package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/nao1215/stegscan/internal/detector"
	"github.com/nao1215/stegscan/internal/model"
	"github.com/nao1215/stegscan/internal/verdict"
)

// File represents the structure of the .stegscan configuration file.
type File struct {
	// Scoring adjusts the verdict rule table and thresholds.
	Scoring ScoringConfig `yaml:"scoring,omitempty"`

	// Detectors adjusts the external tool catalog.
	Detectors DetectorsConfig `yaml:"detectors,omitempty"`

	// BitPlanes adjusts bit-plane rendering.
	BitPlanes BitPlanesConfig `yaml:"bitplanes,omitempty"`

	// MaxPixels overrides the decode size limit.
	MaxPixels int `yaml:"maxPixels,omitempty"`
}

// ScoringConfig configures the verdict engine.
type ScoringConfig struct {
	// SafeMax is the highest score classified Safe. Nil keeps the default.
	SafeMax *int `yaml:"safeMax,omitempty"`

	// SuspiciousMax is the highest score classified Suspicious. Nil keeps the default.
	SuspiciousMax *int `yaml:"suspiciousMax,omitempty"`

	// Weights overrides the weight of built-in rules by name.
	Weights map[string]int `yaml:"weights,omitempty"`

	// Rules are appended to the built-in table, or replace it when
	// ReplaceDefaults is set.
	Rules []RuleConfig `yaml:"rules,omitempty"`

	// ReplaceDefaults discards the built-in rule table.
	ReplaceDefaults bool `yaml:"replaceDefaults,omitempty"`
}

// RuleConfig is one rule as written in the configuration file.
type RuleConfig struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Detector    string `yaml:"detector,omitempty"`
	Status      string `yaml:"status,omitempty"`
	Threshold   int    `yaml:"threshold,omitempty"`
	MinFindings int    `yaml:"minFindings,omitempty"`
	Weight      int    `yaml:"weight"`
	Reason      string `yaml:"reason,omitempty"`
}

// DetectorsConfig configures the external tool catalog.
type DetectorsConfig struct {
	// Timeout bounds every invocation, e.g. "45s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Concurrency bounds tools running at once for one file.
	Concurrency int `yaml:"concurrency,omitempty"`

	// MaxLines bounds the output kept for tools that set no own limit.
	MaxLines int `yaml:"maxLines,omitempty"`

	// Disable lists tool names that must not run.
	Disable []string `yaml:"disable,omitempty"`

	// Custom adds tools or replaces built-in ones with the same name.
	Custom []DetectorConfig `yaml:"custom,omitempty"`
}

// DetectorConfig is one tool as written in the configuration file.
type DetectorConfig struct {
	Name      string   `yaml:"name"`
	Command   []string `yaml:"command"`
	Stdin     string   `yaml:"stdin,omitempty"`
	Parser    string   `yaml:"parser,omitempty"`
	MaxLines  int      `yaml:"maxLines,omitempty"`
	OutputDir bool     `yaml:"outputDir,omitempty"`
}

// BitPlanesConfig configures bit-plane rendering.
type BitPlanesConfig struct {
	// Dir is the artifact directory.
	Dir string `yaml:"dir,omitempty"`

	// URLPrefix is prepended to artifact names in the report.
	URLPrefix string `yaml:"urlPrefix,omitempty"`

	// Bits lists the rendered bit positions.
	Bits []int `yaml:"bits,omitempty"`

	// Channels lists the rendered channels by name.
	Channels []string `yaml:"channels,omitempty"`
}

// Thresholds returns the classification thresholds with file overrides.
func (f *File) Thresholds() verdict.Thresholds {
	t := verdict.DefaultThresholds()
	if f.Scoring.SafeMax != nil {
		t.SafeMax = *f.Scoring.SafeMax
	}
	if f.Scoring.SuspiciousMax != nil {
		t.SuspiciousMax = *f.Scoring.SuspiciousMax
	}
	return t
}

// Rules returns the effective rule table.
// Weight overrides must name a rule of the resulting table.
func (f *File) Rules() ([]verdict.Rule, error) {
	var rules []verdict.Rule
	if !f.Scoring.ReplaceDefaults {
		rules = verdict.DefaultRules()
	}

	for _, rc := range f.Scoring.Rules {
		r, err := rc.rule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}

	for name, weight := range f.Scoring.Weights {
		i := slices.IndexFunc(rules, func(r verdict.Rule) bool { return r.Name == name })
		if i < 0 {
			return nil, fmt.Errorf("%w %q in weights", ErrUnknownRule, name)
		}
		rules[i].Weight = weight
	}

	return rules, nil
}

// rule converts the file representation into a verdict rule.
// Detector rules default to requiring a Success status.
func (rc RuleConfig) rule() (verdict.Rule, error) {
	status := model.StatusSuccess
	if rc.Status != "" {
		s, err := model.ParseStatus(rc.Status)
		if err != nil {
			return verdict.Rule{}, fmt.Errorf("rule %s: %w", rc.Name, err)
		}
		status = s
	}
	return verdict.Rule{
		Name:        rc.Name,
		Kind:        verdict.Kind(rc.Kind),
		Detector:    rc.Detector,
		Status:      status,
		Threshold:   rc.Threshold,
		MinFindings: rc.MinFindings,
		Weight:      rc.Weight,
		Reason:      rc.Reason,
	}, nil
}

// Specs returns the effective detector catalog: built-in specs merged with
// custom ones, without disabled tools. Specs without an own output bound
// get maxLines.
func (f *File) Specs(disabled []string, maxLines int) []detector.Spec {
	custom := make([]detector.Spec, len(f.Detectors.Custom))
	for i, dc := range f.Detectors.Custom {
		custom[i] = detector.Spec{
			Name:      dc.Name,
			Command:   slices.Clone(dc.Command),
			Stdin:     dc.Stdin,
			Parser:    dc.Parser,
			MaxLines:  dc.MaxLines,
			OutputDir: dc.OutputDir,
		}
	}

	specs := detector.Without(detector.Merge(detector.DefaultSpecs(), custom), disabled)
	for i := range specs {
		if specs[i].MaxLines == 0 {
			specs[i].MaxLines = maxLines
		}
	}
	return specs
}

// Channels returns the configured bit-plane channels, nil for the default.
func (f *File) Channels() ([]model.Channel, error) {
	if len(f.BitPlanes.Channels) == 0 {
		return nil, nil
	}
	channels := make([]model.Channel, 0, len(f.BitPlanes.Channels))
	for _, name := range f.BitPlanes.Channels {
		ch, err := model.ParseChannel(name)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, nil
}
