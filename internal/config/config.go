package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/stegscan/internal/bitplane"
	"github.com/nao1215/stegscan/internal/detector"
	"github.com/nao1215/stegscan/internal/sample"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "stegscan"

	// DefaultDetectorTimeout bounds every external tool invocation.
	DefaultDetectorTimeout = detector.DefaultTimeout

	// DefaultDetectorConcurrency is the number of tools run at once per file.
	DefaultDetectorConcurrency = detector.DefaultConcurrency

	// DefaultBatchSize is the number of files analyzed concurrently.
	DefaultBatchSize = 4

	// DefaultMaxLines bounds the tool output kept in a report.
	DefaultMaxLines = detector.DefaultMaxLines

	// DefaultURLPrefix is the reference prefix of bit-plane artifacts.
	DefaultURLPrefix = bitplane.DefaultURLPrefix

	// DefaultMaxPixels rejects decompression bombs before decoding.
	DefaultMaxPixels = sample.DefaultMaxPixels
)

// Config holds all configuration options for a scan.
// It is populated from the configuration file and CLI flags and passed down
// explicitly rather than kept in global state.
type Config struct {
	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .stegscan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// File holds the settings loaded from the configuration file.
	// It is never nil after loading; an empty File means no file was found.
	File *File

	// Targets is the list of image files to analyze.
	Targets []string

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// ArtifactDir is where bit-plane images are written.
	// Defaults to the XDG cache directory.
	ArtifactDir string

	// URLPrefix is prepended to artifact names in the report.
	URLPrefix string

	// Bits lists the bit planes rendered per channel.
	Bits []int

	// DetectorTimeout bounds every external tool invocation.
	DetectorTimeout time.Duration

	// DetectorConcurrency bounds tools running at once for one file.
	DetectorConcurrency int

	// BatchSize is the number of files analyzed concurrently.
	BatchSize int

	// MaxLines bounds the detector output lines kept in a report.
	MaxLines int

	// MaxPixels is the decode limit in pixels.
	MaxPixels int

	// Disabled lists detector names that must not run.
	Disabled []string

	// SaveToDB archives finished reports in the report database.
	SaveToDB bool

	// DBDir is the directory of the report database.
	DBDir string

	// NoColor disables colored terminal output.
	NoColor bool

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		File:                &File{},
		ArtifactDir:         XDGArtifactDir(),
		URLPrefix:           DefaultURLPrefix,
		Bits:                append([]int(nil), bitplane.DefaultBits...),
		DetectorTimeout:     DefaultDetectorTimeout,
		DetectorConcurrency: DefaultDetectorConcurrency,
		BatchSize:           DefaultBatchSize,
		MaxLines:            DefaultMaxLines,
		MaxPixels:           DefaultMaxPixels,
		DBDir:               XDGDataDir(),
	}
}

// ApplyFile copies the non-zero settings of f over the current values.
// CLI flags are applied afterwards so that they take precedence.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.File = f

	d := f.Detectors
	if d.Timeout > 0 {
		c.DetectorTimeout = d.Timeout
	}
	if d.Concurrency > 0 {
		c.DetectorConcurrency = d.Concurrency
	}
	if d.MaxLines > 0 {
		c.MaxLines = d.MaxLines
	}
	if len(d.Disable) > 0 {
		c.Disabled = append(c.Disabled, d.Disable...)
	}

	b := f.BitPlanes
	if b.Dir != "" {
		c.ArtifactDir = b.Dir
	}
	if b.URLPrefix != "" {
		c.URLPrefix = b.URLPrefix
	}
	if len(b.Bits) > 0 {
		c.Bits = append([]int(nil), b.Bits...)
	}

	if f.MaxPixels > 0 {
		c.MaxPixels = f.MaxPixels
	}
}

// XDGDataDir returns the XDG data directory for stegscan.
// On Linux: ~/.local/share/stegscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for stegscan.
// On Linux: ~/.config/stegscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for stegscan.
// On Linux: ~/.cache/stegscan
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// XDGArtifactDir returns the default bit-plane artifact directory.
func XDGArtifactDir() string {
	return filepath.Join(XDGCacheDir(), "bitplanes")
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.DetectorTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.DetectorConcurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	for _, bit := range c.Bits {
		if bit < 0 || bit > 7 {
			return ErrInvalidBit
		}
	}

	if c.MaxLines < 0 {
		return ErrInvalidMaxLines
	}

	if c.MaxPixels < 0 {
		return ErrInvalidMaxPixels
	}

	return nil
}
