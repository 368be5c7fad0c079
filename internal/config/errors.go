package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and File validation and
// can be matched with errors.Is().
var (
	// ErrNoTarget is returned when no image file is specified.
	ErrNoTarget = errors.New("no target specified: provide one or more image files")

	// ErrInvalidTimeout is returned when the detector timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the detector concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidBit is returned when a bit-plane index is outside 0..7.
	ErrInvalidBit = errors.New("invalid bit plane: must be between 0 and 7")

	// ErrInvalidMaxLines is returned when the detector output bound is negative.
	ErrInvalidMaxLines = errors.New("invalid max lines: must be non-negative")

	// ErrInvalidMaxPixels is returned when the decode pixel limit is negative.
	ErrInvalidMaxPixels = errors.New("invalid max pixels: must be non-negative")

	// ErrUnknownRule is returned when a weight override names no rule.
	ErrUnknownRule = errors.New("unknown rule")
)
