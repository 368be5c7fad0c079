package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/stegscan/internal/model"
	"github.com/nao1215/stegscan/internal/verdict"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default DetectorTimeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.DetectorTimeout != 30*time.Second {
			t.Errorf("expected DetectorTimeout to be 30s, got %v", cfg.DetectorTimeout)
		}
	})

	t.Run("default concurrency and batch size are 4", func(t *testing.T) {
		t.Parallel()
		if cfg.DetectorConcurrency != 4 || cfg.BatchSize != 4 {
			t.Errorf("expected 4/4, got %d/%d", cfg.DetectorConcurrency, cfg.BatchSize)
		}
	})

	t.Run("default bits are 0 and 1", func(t *testing.T) {
		t.Parallel()
		if !slices.Equal(cfg.Bits, []int{0, 1}) {
			t.Errorf("expected [0 1], got %v", cfg.Bits)
		}
	})

	t.Run("default URL prefix", func(t *testing.T) {
		t.Parallel()
		if cfg.URLPrefix != "/static/bitplanes" {
			t.Errorf("unexpected URL prefix %q", cfg.URLPrefix)
		}
	})

	t.Run("default directories follow XDG", func(t *testing.T) {
		t.Parallel()
		if cfg.ArtifactDir != XDGArtifactDir() {
			t.Errorf("expected artifact dir %q, got %q", XDGArtifactDir(), cfg.ArtifactDir)
		}
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected db dir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("archive is opt-in", func(t *testing.T) {
		t.Parallel()
		if cfg.SaveToDB {
			t.Error("expected SaveToDB to be false")
		}
	})

	t.Run("file is never nil", func(t *testing.T) {
		t.Parallel()
		if cfg.File == nil {
			t.Error("expected empty File")
		}
	})
}

// TestConfigValidate tests configuration validation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"cat.png"}
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"valid config", func(*Config) {}, nil},
		{"no targets", func(c *Config) { c.Targets = nil }, ErrNoTarget},
		{"zero timeout", func(c *Config) { c.DetectorTimeout = 0 }, ErrInvalidTimeout},
		{"zero concurrency", func(c *Config) { c.DetectorConcurrency = 0 }, ErrInvalidConcurrency},
		{"negative batch", func(c *Config) { c.BatchSize = -1 }, ErrInvalidBatchSize},
		{"json and markdown", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"bit too high", func(c *Config) { c.Bits = []int{0, 8} }, ErrInvalidBit},
		{"negative bit", func(c *Config) { c.Bits = []int{-1} }, ErrInvalidBit},
		{"negative max lines", func(c *Config) { c.MaxLines = -1 }, ErrInvalidMaxLines},
		{"negative max pixels", func(c *Config) { c.MaxPixels = -1 }, ErrInvalidMaxPixels},
		{"all bits", func(c *Config) { c.Bits = []int{0, 1, 2, 3, 4, 5, 6, 7} }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestConfigApplyFile tests that file settings override defaults.
func TestConfigApplyFile(t *testing.T) {
	t.Parallel()

	t.Run("nil file keeps defaults", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.ApplyFile(nil)
		if cfg.DetectorTimeout != DefaultDetectorTimeout {
			t.Error("defaults must be kept")
		}
	})

	t.Run("non-zero values override", func(t *testing.T) {
		t.Parallel()

		f := &File{
			Detectors: DetectorsConfig{
				Timeout:     45 * time.Second,
				Concurrency: 2,
				MaxLines:    100,
				Disable:     []string{"stegsolve"},
			},
			BitPlanes: BitPlanesConfig{
				Dir:       "/var/cache/planes",
				URLPrefix: "/planes",
				Bits:      []int{0},
			},
			MaxPixels: 1000,
		}

		cfg := NewConfig()
		cfg.ApplyFile(f)

		if cfg.File != f {
			t.Error("expected file to be kept")
		}
		if cfg.DetectorTimeout != 45*time.Second || cfg.DetectorConcurrency != 2 || cfg.MaxLines != 100 {
			t.Errorf("detector settings not applied: %+v", cfg)
		}
		if !slices.Equal(cfg.Disabled, []string{"stegsolve"}) {
			t.Errorf("unexpected disabled list %v", cfg.Disabled)
		}
		if cfg.ArtifactDir != "/var/cache/planes" || cfg.URLPrefix != "/planes" || !slices.Equal(cfg.Bits, []int{0}) {
			t.Errorf("bit-plane settings not applied: %+v", cfg)
		}
		if cfg.MaxPixels != 1000 {
			t.Errorf("expected MaxPixels 1000, got %d", cfg.MaxPixels)
		}
	})

	t.Run("zero values keep defaults", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.ApplyFile(&File{})
		if cfg.BatchSize != DefaultBatchSize || cfg.URLPrefix != DefaultURLPrefix {
			t.Error("empty file must not change defaults")
		}
	})
}

// TestFileRules tests the effective rule table.
func TestFileRules(t *testing.T) {
	t.Parallel()

	t.Run("empty file returns built-in rules", func(t *testing.T) {
		t.Parallel()
		rules, err := (&File{}).Rules()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rules) != len(verdict.DefaultRules()) {
			t.Errorf("expected %d rules, got %d", len(verdict.DefaultRules()), len(rules))
		}
	})

	t.Run("weights override built-in rules", func(t *testing.T) {
		t.Parallel()
		f := &File{Scoring: ScoringConfig{Weights: map[string]int{"ai_anomaly": 5}}}
		rules, err := f.Rules()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		i := slices.IndexFunc(rules, func(r verdict.Rule) bool { return r.Name == "ai_anomaly" })
		if i < 0 || rules[i].Weight != 5 {
			t.Errorf("weight override not applied: %+v", rules)
		}
	})

	t.Run("unknown weight rule", func(t *testing.T) {
		t.Parallel()
		f := &File{Scoring: ScoringConfig{Weights: map[string]int{"nope": 5}}}
		if _, err := f.Rules(); !errors.Is(err, ErrUnknownRule) {
			t.Errorf("expected ErrUnknownRule, got %v", err)
		}
	})

	t.Run("custom rules append with default status", func(t *testing.T) {
		t.Parallel()
		f := &File{Scoring: ScoringConfig{Rules: []RuleConfig{
			{Name: "outguess_hit", Kind: "findings", Detector: "outguess", Weight: 25},
			{Name: "steghide_warn", Kind: "status", Detector: "steghide", Status: "warning", Weight: 5},
		}}}
		rules, err := f.Rules()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n := len(verdict.DefaultRules())
		if len(rules) != n+2 {
			t.Fatalf("expected %d rules, got %d", n+2, len(rules))
		}
		if rules[n].Status != model.StatusSuccess {
			t.Errorf("expected default Success status, got %s", rules[n].Status)
		}
		if rules[n+1].Status != model.StatusWarning {
			t.Errorf("expected Warning status, got %s", rules[n+1].Status)
		}
		if _, err := verdict.NewEngine(rules); err != nil {
			t.Errorf("rules must be accepted by the engine: %v", err)
		}
	})

	t.Run("replace defaults", func(t *testing.T) {
		t.Parallel()
		f := &File{Scoring: ScoringConfig{
			ReplaceDefaults: true,
			Rules:           []RuleConfig{{Name: "only", Kind: "lsb", Weight: 100}},
		}}
		rules, err := f.Rules()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rules) != 1 || rules[0].Name != "only" {
			t.Errorf("unexpected rules %+v", rules)
		}
	})

	t.Run("invalid status", func(t *testing.T) {
		t.Parallel()
		f := &File{Scoring: ScoringConfig{Rules: []RuleConfig{
			{Name: "bad", Kind: "status", Detector: "x", Status: "sometimes"},
		}}}
		if _, err := f.Rules(); err == nil {
			t.Error("expected error for unknown status")
		}
	})
}

// TestFileThresholds tests threshold overrides.
func TestFileThresholds(t *testing.T) {
	t.Parallel()

	if got := (&File{}).Thresholds(); got != verdict.DefaultThresholds() {
		t.Errorf("expected defaults, got %+v", got)
	}

	safe, suspicious := 20, 60
	f := &File{Scoring: ScoringConfig{SafeMax: &safe, SuspiciousMax: &suspicious}}
	got := f.Thresholds()
	if got.SafeMax != 20 || got.SuspiciousMax != 60 {
		t.Errorf("unexpected thresholds %+v", got)
	}

	t.Run("zero safe maximum is kept", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".stegscan")
		if err := os.WriteFile(path, []byte("scoring:\n  safeMax: 0\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := f.Thresholds()
		if got.SafeMax != 0 || got.SuspiciousMax != verdict.DefaultThresholds().SuspiciousMax {
			t.Errorf("unexpected thresholds %+v", got)
		}
		if err := got.Validate(); err != nil {
			t.Errorf("expected valid thresholds, got %v", err)
		}
		if c := verdict.Classify(1, got); c != model.ClassificationSuspicious {
			t.Errorf("expected score 1 to be Suspicious, got %s", c)
		}
	})
}

// TestFileSpecs tests the effective detector catalog.
func TestFileSpecs(t *testing.T) {
	t.Parallel()

	f := &File{Detectors: DetectorsConfig{Custom: []DetectorConfig{
		{Name: "binwalk", Command: []string{"binwalk", "-e", "{file}"}, Parser: "binwalk"},
		{Name: "mytool", Command: []string{"mytool", "{file}"}},
	}}}

	specs := f.Specs([]string{"stegsolve"}, 120)

	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	if slices.Contains(names, "stegsolve") {
		t.Error("disabled detector must be removed")
	}
	if names[len(names)-1] != "mytool" {
		t.Errorf("custom detector must be appended, got %v", names)
	}

	i := slices.Index(names, "binwalk")
	if i < 0 || !slices.Equal(specs[i].Command, []string{"binwalk", "-e", "{file}"}) {
		t.Errorf("binwalk must be replaced in place: %+v", specs)
	}
	if specs[i].MaxLines != 120 {
		t.Errorf("expected default max lines 120, got %d", specs[i].MaxLines)
	}

	s := slices.Index(names, "strings")
	if s < 0 || specs[s].MaxLines != 50 {
		t.Error("strings keeps its own preview limit")
	}
}

// TestFileChannels tests channel parsing.
func TestFileChannels(t *testing.T) {
	t.Parallel()

	channels, err := (&File{}).Channels()
	if err != nil || channels != nil {
		t.Errorf("expected nil channels, got %v, %v", channels, err)
	}

	f := &File{BitPlanes: BitPlanesConfig{Channels: []string{"Red", "b"}}}
	channels, err = f.Channels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(channels, []model.Channel{model.ChannelRed, model.ChannelBlue}) {
		t.Errorf("unexpected channels %v", channels)
	}

	f = &File{BitPlanes: BitPlanesConfig{Channels: []string{"alpha"}}}
	if _, err := f.Channels(); err == nil {
		t.Error("expected error for unknown channel")
	}
}

// TestLoadConfigFile tests YAML loading.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads all sections", func(t *testing.T) {
		t.Parallel()

		content := `
scoring:
  safeMax: 25
  weights:
    payload_reveal: 60
detectors:
  timeout: 45s
  disable:
    - stegsolve
  custom:
    - name: mytool
      command: ["mytool", "{file}"]
      parser: lines
bitplanes:
  bits: [0, 1, 2]
  channels: [Red]
maxPixels: 4096
`
		path := filepath.Join(t.TempDir(), ".stegscan")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Scoring.SafeMax == nil || *f.Scoring.SafeMax != 25 || f.Scoring.Weights["payload_reveal"] != 60 {
			t.Errorf("scoring not loaded: %+v", f.Scoring)
		}
		if f.Detectors.Timeout != 45*time.Second {
			t.Errorf("expected 45s timeout, got %v", f.Detectors.Timeout)
		}
		if len(f.Detectors.Custom) != 1 || f.Detectors.Custom[0].Command[1] != "{file}" {
			t.Errorf("custom detectors not loaded: %+v", f.Detectors.Custom)
		}
		if !slices.Equal(f.BitPlanes.Bits, []int{0, 1, 2}) {
			t.Errorf("bits not loaded: %v", f.BitPlanes.Bits)
		}
		if f.MaxPixels != 4096 {
			t.Errorf("expected maxPixels 4096, got %d", f.MaxPixels)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".stegscan")
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f == nil {
			t.Error("expected empty File")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".stegscan")
		if err := os.WriteFile(path, []byte("scoring:\n  safemax: 10\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		_, err := LoadConfigFile(path)
		if err == nil || !strings.Contains(err.Error(), "safemax") {
			t.Errorf("expected unknown field error, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".stegscan")
		if err := os.WriteFile(path, []byte("scoring: [unclosed"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

// TestFindConfigFile tests configuration file discovery.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("scoring: {}"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if got := FindConfigFile(configPath); got != configPath {
			t.Errorf("expected %q, got %q", configPath, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile("/nonexistent/path/config.yaml"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":     XDGDataDir(),
		"config":   XDGConfigDir(),
		"cache":    XDGCacheDir(),
		"artifact": XDGArtifactDir(),
	} {
		if !strings.Contains(dir, AppName) {
			t.Errorf("%s dir %q does not contain %q", name, dir, AppName)
		}
	}
	if filepath.Dir(XDGArtifactDir()) != XDGCacheDir() {
		t.Error("artifact dir must live in the cache dir")
	}
}
