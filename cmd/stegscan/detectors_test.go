package main

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/stegscan/internal/config"
	"github.com/nao1215/stegscan/internal/detector"
)

func runDetectors(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := NewDetectorsCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// TestRunDetectorsCmd tests the detector listing.
func TestRunDetectorsCmd(t *testing.T) {
	t.Parallel()

	total := len(detector.DefaultSpecs())

	t.Run("lists the built-in catalog", func(t *testing.T) {
		t.Parallel()

		out, err := runDetectors(t, "-c", writeConfig(t, ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"NAME", "binwalk", "steghide info {file}", fmt.Sprintf("of %d detectors installed", total)} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("applies disable and custom tools", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
detectors:
  disable: [stegcracker]
  custom:
    - name: stegseek
      command: ["stegseek", "--seed", "{file}"]
`)
		out, err := runDetectors(t, "-c", path, "-d", "camo")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(out, "stegcracker") || strings.Contains(out, "camo") {
			t.Errorf("disabled detectors listed:\n%s", out)
		}
		if !strings.Contains(out, "stegseek --seed {file}") {
			t.Errorf("custom detector missing:\n%s", out)
		}
		if !strings.Contains(out, fmt.Sprintf("of %d detectors installed", total-1)) {
			t.Errorf("unexpected total:\n%s", out)
		}
	})

	t.Run("invalid custom parser", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
detectors:
  custom:
    - name: broken
      command: ["true"]
      parser: nope
`)
		if _, err := runDetectors(t, "-c", path); err == nil {
			t.Error("expected error for unknown parser")
		}
	})

	t.Run("missing explicit config", func(t *testing.T) {
		t.Parallel()

		_, err := runDetectors(t, "-c", filepath.Join(t.TempDir(), "none.yaml"))
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}
