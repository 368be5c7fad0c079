package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/stegscan/internal/database"
	"github.com/nao1215/stegscan/internal/model"
)

func seedHistory(t *testing.T) (string, int64) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	reports := []*model.Report{
		{
			Filename:    "cat.png",
			SHA3:        "aaaa",
			AnalyzedAt:  base,
			FinalReport: &model.Verdict{Score: 20, Classification: model.ClassificationSafe},
		},
		{
			Filename:    "cat-copy.png",
			SHA3:        "aaaa",
			AnalyzedAt:  base.Add(time.Hour),
			FinalReport: &model.Verdict{Score: 90, Classification: model.ClassificationHighlySuspicious},
		},
		{
			Filename:   "broken.png",
			SHA3:       "bbbb",
			AnalyzedAt: base.Add(2 * time.Hour),
			Error:      "decode failed",
		},
	}

	var lastID int64
	for _, r := range reports {
		id, err := db.SaveReport(context.Background(), r)
		if err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		lastID = id
	}
	return dir, lastID
}

func runHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := NewHistoryCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// TestRunHistoryCmd tests listing and printing archived reports.
func TestRunHistoryCmd(t *testing.T) {
	t.Parallel()

	// Subtests share one database file and run sequentially.
	dir, lastID := seedHistory(t)

	t.Run("lists most recent first", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Archived reports (3)") {
			t.Errorf("unexpected output:\n%s", out)
		}
		broken := strings.Index(out, "broken.png")
		cat := strings.Index(out, "cat.png")
		if broken < 0 || cat < 0 || broken > cat {
			t.Errorf("expected newest report first:\n%s", out)
		}
		if !strings.Contains(out, "Highly Suspicious (90)") {
			t.Errorf("expected verdict column:\n%s", out)
		}
	})

	t.Run("limit", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dir, "-n", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Archived reports (1)") || strings.Contains(out, "cat.png") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("by fingerprint", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dir, "--sha", "aaaa")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Archived reports (2)") || strings.Contains(out, "broken.png") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("unknown fingerprint", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dir, "--sha", "ffff")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No archived reports found.") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("by id", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dir, "--id", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(out), &decoded); err != nil {
			t.Fatalf("expected JSON: %v\n%s", err, out)
		}
		if decoded["filename"] != "cat.png" {
			t.Errorf("filename = %v", decoded["filename"])
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := runHistory(t, "--db-dir", dir, "--id", "999"); err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not found error, got %v", err)
		}
		if lastID != 3 {
			t.Errorf("expected three archived reports, last id %d", lastID)
		}
	})
}

// TestRunHistoryCmdWithoutDatabase tests the missing archive case.
func TestRunHistoryCmdWithoutDatabase(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "none")
	_, err := runHistory(t, "--db-dir", dir)
	if err == nil || !strings.Contains(err.Error(), "--save") {
		t.Errorf("expected hint about --save, got %v", err)
	}
}

func TestShorten(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"cat.png", 10, "cat.png"},
		{"a-very-long-file-name.png", 10, "a-very-..."},
		{"abcdef", 3, "abc"},
		{"日本語のファイル名.png", 6, "日本語..."},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := shorten(tt.input, tt.n); got != tt.want {
				t.Errorf("shorten(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
			}
		})
	}
}

func TestHistoryVerdict(t *testing.T) {
	t.Parallel()

	if got := historyVerdict(database.ReportMetadata{Error: "x"}); got != "Error" {
		t.Errorf("got %q", got)
	}
	got := historyVerdict(database.ReportMetadata{HasVerdict: true, Verdict: "Suspicious", Score: 40})
	if got != "Suspicious (40)" {
		t.Errorf("got %q", got)
	}
}
