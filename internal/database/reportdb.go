package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/stegscan/internal/model"
)

// FileName is the archive file created inside the database directory.
const FileName = "stegscan.db"

// timestampLayout is fixed width so that stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ReportDB stores finished analysis reports in SQLite.
type ReportDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ReportDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ReportDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ReportDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	var dsn string
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ReportDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *ReportDB) Close() error {
	return rdb.db.Close()
}

// Path returns the database file path.
func (rdb *ReportDB) Path() string {
	return rdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (rdb *ReportDB) createTables() error {
	schema := `
	-- One row per archived analysis; score and verdict are NULL without a verdict
	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL,
		sha3_256 TEXT NOT NULL DEFAULT '',
		analyzed_at TEXT NOT NULL,
		score INTEGER,
		verdict TEXT,
		error TEXT NOT NULL DEFAULT '',
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_sha3 ON reports(sha3_256);
	CREATE INDEX IF NOT EXISTS idx_reports_analyzed_at ON reports(analyzed_at);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport archives a report and returns its ID.
func (rdb *ReportDB) SaveReport(ctx context.Context, report *model.Report) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	var score sql.NullInt64
	var verdict sql.NullString
	if v := report.FinalReport; v != nil {
		score = sql.NullInt64{Int64: int64(v.Score), Valid: true}
		verdict = sql.NullString{String: v.Classification.String(), Valid: true}
	}

	analyzedAt := report.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = time.Now()
	}

	query := `
	INSERT INTO reports (filename, sha3_256, analyzed_at, score, verdict, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := rdb.db.ExecContext(ctx, query,
		report.Filename,
		report.SHA3,
		analyzedAt.UTC().Format(timestampLayout),
		score,
		verdict,
		report.Error,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}

	return res.LastInsertId()
}

// ReportMetadata contains summary information about an archived report.
// This is used for displaying history without loading the full report.
type ReportMetadata struct {
	// ID is the unique identifier of the report in the database.
	ID int64

	// Filename is the analyzed file name.
	Filename string

	// SHA3 is the file fingerprint.
	SHA3 string

	// AnalyzedAt is when the analysis started.
	AnalyzedAt time.Time

	// Score is the suspicion score. Meaningful only when HasVerdict is true.
	Score int

	// Verdict is the classification text, empty without a verdict.
	Verdict string

	// HasVerdict is false for analyses that failed before the verdict.
	HasVerdict bool

	// Error is the fatal error message of a failed analysis.
	Error string
}

// ListReports returns the most recent reports first.
// A limit of zero or less returns every report.
func (rdb *ReportDB) ListReports(ctx context.Context, limit int) ([]ReportMetadata, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
	SELECT id, filename, sha3_256, analyzed_at, score, verdict, error
	FROM reports
	ORDER BY analyzed_at DESC, id DESC
	LIMIT ?
	`
	return rdb.queryMetadata(ctx, query, limit)
}

// GetHistoryBySHA returns every archived analysis of the same file content,
// most recent first.
func (rdb *ReportDB) GetHistoryBySHA(ctx context.Context, sha string) ([]ReportMetadata, error) {
	query := `
	SELECT id, filename, sha3_256, analyzed_at, score, verdict, error
	FROM reports
	WHERE sha3_256 = ?
	ORDER BY analyzed_at DESC, id DESC
	`
	return rdb.queryMetadata(ctx, query, sha)
}

func (rdb *ReportDB) queryMetadata(ctx context.Context, query string, args ...any) ([]ReportMetadata, error) {
	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	results := make([]ReportMetadata, 0)
	for rows.Next() {
		var meta ReportMetadata
		var analyzedAt string
		var score sql.NullInt64
		var verdict sql.NullString

		if err := rows.Scan(&meta.ID, &meta.Filename, &meta.SHA3, &analyzedAt, &score, &verdict, &meta.Error); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.AnalyzedAt = parseTimestamp(analyzedAt)
		if score.Valid {
			meta.Score = int(score.Int64)
			meta.HasVerdict = true
		}
		meta.Verdict = verdict.String

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetReportByID retrieves a full report by its database ID.
// Returns nil without error when no such report exists.
func (rdb *ReportDB) GetReportByID(ctx context.Context, id int64) (*model.Report, error) {
	query := `SELECT report_json FROM reports WHERE id = ?`

	var reportJSON string
	err := rdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
