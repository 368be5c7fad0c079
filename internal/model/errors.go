package model

import "errors"

// Error taxonomy of an analysis. Detector level errors are converted into
// DetectorResult values by the detector adapter; only ErrDecode aborts an
// analysis and surfaces in the report as its error field.
var (
	// ErrDetectorUnavailable indicates the detector binary or model is absent.
	ErrDetectorUnavailable = errors.New("detector unavailable")

	// ErrDetectorTimeout indicates the detector exceeded its deadline.
	ErrDetectorTimeout = errors.New("detector timed out")

	// ErrDetectorRuntime indicates the detector failed while running.
	ErrDetectorRuntime = errors.New("detector runtime error")

	// ErrDecode indicates the image could not be parsed.
	ErrDecode = errors.New("image decode error")

	// ErrArtifactIO indicates an artifact could not be written.
	ErrArtifactIO = errors.New("artifact write error")
)
