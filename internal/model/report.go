package model

import (
	"maps"
	"slices"
	"time"
)

// Dimensions holds the pixel size of the analyzed image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Report is the structured result of one analysis.
// The JSON keys are stable and mirror the analysis stages.
type Report struct {
	// Filename is the base name of the analyzed file.
	Filename string `json:"filename"`

	// SizeBytes is the file size.
	SizeBytes int64 `json:"size_bytes"`

	// SHA3 is the hex SHA3-256 digest of the file content.
	SHA3 string `json:"sha3_256,omitempty"`

	// Format is the decoded image format, e.g. "PNG".
	Format string `json:"format,omitempty"`

	// Mode is the source color mode, e.g. "RGBA".
	Mode string `json:"mode,omitempty"`

	// Dimensions is nil when the image could not be decoded.
	Dimensions *Dimensions `json:"dimensions,omitempty"`

	// Metadata is the raw embedded metadata mapping.
	Metadata map[string]string `json:"metadata"`

	// LSBAnalysis is the least-significant-bit statistic.
	LSBAnalysis *LSBStatistic `json:"lsb_analysis,omitempty"`

	// AIScore is the anomaly scorer result.
	AIScore *AIScore `json:"ai_score,omitempty"`

	// Detectors maps detector names to results in invocation order.
	Detectors *DetectorResults `json:"detectors"`

	// BitPlanes lists the rendered bit-plane artifacts.
	BitPlanes *BitPlaneSet `json:"bit_planes,omitempty"`

	// Indicators lists sensitive artifacts found in tool output and metadata.
	Indicators []Indicator `json:"indicators,omitempty"`

	// FinalReport is the verdict. It is nil when the analysis failed.
	FinalReport *Verdict `json:"final_report,omitempty"`

	// Error is the fatal error message, if any.
	Error string `json:"error,omitempty"`

	// PerformedSteps lists the executed pipeline steps.
	PerformedSteps []string `json:"performed_steps"`

	// StepTimings lists the duration of every executed step.
	StepTimings []StepTiming `json:"step_timings,omitempty"`

	// DurationMS is the summed duration of the steps.
	DurationMS int64 `json:"duration_ms"`

	// AnalyzedAt is when the analysis started.
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// NewReport composes a Report from a finished analysis.
// It copies values and makes no decisions of its own.
func NewReport(a *Analysis) *Report {
	r := &Report{
		Filename:       a.File.Name,
		SizeBytes:      a.File.SizeBytes,
		SHA3:           a.File.SHA3,
		Metadata:       make(map[string]string),
		Detectors:      NewDetectorResults(),
		FinalReport:    a.Verdict,
		Error:          a.ErrorMessage,
		PerformedSteps: append([]string(nil), a.PerformedSteps...),
		StepTimings:    slices.Clone(a.StepTimings),
		DurationMS:     a.Elapsed(),
		AnalyzedAt:     a.StartedAt,
	}
	if r.PerformedSteps == nil {
		r.PerformedSteps = []string{}
	}

	if s := a.Sample; s != nil {
		r.Format = s.Format
		r.Mode = s.Mode
		r.Dimensions = &Dimensions{Width: s.Width, Height: s.Height}
		if s.Metadata != nil {
			r.Metadata = maps.Clone(s.Metadata)
		}
	}

	if e := a.Evidence; e != nil {
		r.LSBAnalysis = e.LSB
		r.AIScore = e.AIScore
		r.BitPlanes = e.BitPlanes
		r.Indicators = slices.Clone(e.Indicators)
		if e.Detectors != nil {
			r.Detectors = e.Detectors
		}
	}

	return r
}

// Failed reports whether the analysis ended without a verdict.
func (r *Report) Failed() bool {
	return r.Error != "" || r.FinalReport == nil
}
