package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/stegscan/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *ReportDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// newReport builds a report with a verdict for the given file.
func newReport(name, sha string, score int, at time.Time) *model.Report {
	a := model.NewAnalysis(name)
	a.File.SHA3 = sha
	a.StartedAt = at
	a.Evidence.Detectors.Set("binwalk", model.DetectorResult{Status: model.StatusSuccess})
	a.Verdict = &model.Verdict{
		Score:          score,
		Classification: model.ClassificationSuspicious,
		Reasons:        []string{"reason"},
	}
	a.PerformedSteps = []string{"load", "evidence", "verdict"}
	return model.NewReport(a)
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("fails for missing database without create", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if _, err := db.SaveReport(context.Background(), newReport("a.png", "aa", 40, time.Now())); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		list, err := db.ListReports(context.Background(), 0)
		if err != nil {
			t.Fatalf("failed to list reports: %v", err)
		}
		if len(list) != 1 {
			t.Errorf("expected 1 report after reopen, got %d", len(list))
		}
	})
}

// TestSaveAndGetReport tests the full report round trip.
func TestSaveAndGetReport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := db.SaveReport(ctx, newReport("cat.png", "abc", 55, at))
	if err != nil {
		t.Fatalf("failed to save report: %v", err)
	}
	if id <= 0 {
		t.Errorf("expected positive id, got %d", id)
	}

	got, err := db.GetReportByID(ctx, id)
	if err != nil {
		t.Fatalf("failed to get report: %v", err)
	}
	if got == nil {
		t.Fatal("expected report")
	}
	if got.Filename != "cat.png" || got.SHA3 != "abc" {
		t.Errorf("unexpected identity %q/%q", got.Filename, got.SHA3)
	}
	if got.FinalReport == nil || got.FinalReport.Score != 55 {
		t.Errorf("unexpected verdict %+v", got.FinalReport)
	}
	if _, ok := got.Detectors.Get("binwalk"); !ok {
		t.Error("expected detector results to survive the round trip")
	}
	if !got.AnalyzedAt.Equal(at) {
		t.Errorf("expected analyzed_at %v, got %v", at, got.AnalyzedAt)
	}

	missing, err := db.GetReportByID(ctx, id+100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing report")
	}
}

// TestListReports tests ordering and limits.
func TestListReports(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"old.png", "mid.png", "new.png"} {
		if _, err := db.SaveReport(ctx, newReport(name, name, i*10, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("failed to save %s: %v", name, err)
		}
	}

	failed := model.NewAnalysis("broken.png")
	failed.StartedAt = base.Add(-time.Hour)
	failed.Fail(model.ErrDecode)
	if _, err := db.SaveReport(ctx, model.NewReport(failed)); err != nil {
		t.Fatalf("failed to save failed report: %v", err)
	}

	all, err := db.ListReports(ctx, 0)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 reports, got %d", len(all))
	}
	if all[0].Filename != "new.png" || all[3].Filename != "broken.png" {
		t.Errorf("unexpected order: %s ... %s", all[0].Filename, all[3].Filename)
	}
	if !all[0].HasVerdict || all[0].Score != 20 || all[0].Verdict != "Suspicious" {
		t.Errorf("unexpected metadata %+v", all[0])
	}
	if all[3].HasVerdict || all[3].Verdict != "" || all[3].Error == "" {
		t.Errorf("failed analysis metadata wrong: %+v", all[3])
	}

	limited, err := db.ListReports(ctx, 2)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 reports, got %d", len(limited))
	}
}

// TestGetHistoryBySHA tests per-content history.
func TestGetHistoryBySHA(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reports := []*model.Report{
		newReport("a.png", "same", 10, base),
		newReport("renamed.png", "same", 20, base.Add(time.Second)),
		newReport("other.png", "different", 30, base),
	}
	for _, r := range reports {
		if _, err := db.SaveReport(ctx, r); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
	}

	history, err := db.GetHistoryBySHA(ctx, "same")
	if err != nil {
		t.Fatalf("failed to get history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].Filename != "renamed.png" {
		t.Errorf("expected most recent first, got %s", history[0].Filename)
	}

	none, err := db.GetHistoryBySHA(ctx, "unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no entries, got %d", len(none))
	}
}

// TestParseTimestamp tests the parseTimestamp helper.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{"stored layout", "2026-03-01T12:00:00.000000000Z", false},
		{"rfc3339", "2026-03-01T12:00:00Z", false},
		{"sqlite default", "2026-03-01 12:00:00", false},
		{"garbage", "yesterday", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.input); got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v", tt.input, got)
			}
		})
	}
}
