package model

import (
	"path/filepath"
	"time"
)

// Analysis is the working state of one file as it moves through the pipeline.
// Steps fill it in; NewReport turns it into the serializable Report.
type Analysis struct {
	// File identifies the analyzed file.
	File FileInfo

	// Sample is the decoded image. It is nil until the load step succeeds
	// and stays nil when decoding fails.
	Sample *ImageSample

	// Evidence accumulates the signals produced by the evidence steps.
	Evidence *EvidenceSet

	// Verdict is set by the verdict step.
	Verdict *Verdict

	// StartedAt is when the analysis was created.
	StartedAt time.Time

	// Error is the fatal error, if any, that prevented a verdict.
	Error error

	// ErrorMessage is the string form of Error.
	ErrorMessage string

	// PerformedSteps lists the executed step names in order.
	PerformedSteps []string

	// StepTimings records how long each executed step took, failed ones
	// included.
	StepTimings []StepTiming
}

// StepTiming is the wall-clock time of one pipeline step.
type StepTiming struct {
	Step       string `json:"step"`
	DurationMS int64  `json:"duration_ms"`
	Failed     bool   `json:"failed,omitempty"`
}

// NewAnalysis creates the working state for the file at path.
func NewAnalysis(path string) *Analysis {
	return &Analysis{
		File: FileInfo{
			Name: filepath.Base(path),
			Path: path,
		},
		Evidence:  NewEvidenceSet(),
		StartedAt: time.Now(),
	}
}

// Fail records a fatal error for the analysis.
func (a *Analysis) Fail(err error) {
	if err == nil {
		return
	}
	a.Error = err
	a.ErrorMessage = err.Error()
}

// Elapsed returns the summed duration of the timed steps in milliseconds.
func (a *Analysis) Elapsed() int64 {
	var total int64
	for _, t := range a.StepTimings {
		total += t.DurationMS
	}
	return total
}

// Failed reports whether a fatal error was recorded.
func (a *Analysis) Failed() bool {
	return a.Error != nil
}
