package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nao1215/stegscan/internal/config"
	"github.com/nao1215/stegscan/internal/database"
	"github.com/nao1215/stegscan/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of archived reports listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// It only displays archived reports; they are never fed back into a scan.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show archived analysis reports",
		Long: `History lists reports archived with 'stegscan scan --save'.

Examples:
  # List the most recent reports
  stegscan history

  # List every archived analysis of the same file content
  stegscan history --sha 3a985da74fe225b2...

  # Print one archived report as JSON
  stegscan history --id 12`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of reports to list (0 lists all)")
	cmd.Flags().String("sha", "",
		"List the analyses of the file with this SHA3-256 fingerprint")
	cmd.Flags().Int64("id", 0,
		"Print the archived report with this ID as JSON")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the report database")

	cmd.MarkFlagsMutuallyExclusive("sha", "id")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	sha, err := flags.GetString("sha")
	if err != nil {
		return err
	}
	id, err := flags.GetInt64("id")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("%w (archive reports with 'stegscan scan --save')", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if id > 0 {
		return printArchivedReport(ctx, db, out, id)
	}

	var entries []database.ReportMetadata
	if sha != "" {
		entries, err = db.GetHistoryBySHA(ctx, sha)
	} else {
		entries, err = db.ListReports(ctx, limit)
	}
	if err != nil {
		return err
	}

	printHistory(out, entries)
	return nil
}

// printArchivedReport writes one archived report as JSON.
func printArchivedReport(ctx context.Context, db *database.ReportDB, out io.Writer, id int64) error {
	r, err := db.GetReportByID(ctx, id)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("report %d not found", id)
	}
	_, err = report.NewJSONWriter(out, report.WithPrettyPrint()).Write(r)
	return err
}

// printHistory writes the archived reports as a table.
func printHistory(out io.Writer, entries []database.ReportMetadata) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No archived reports found.")
		return
	}

	fmt.Fprintf(out, "Archived reports (%d):\n\n", len(entries))
	fmt.Fprintf(out, "  %-6s  %-20s  %-24s  %-24s  %s\n", "ID", "Date", "File", "Verdict", "SHA3-256")
	for _, e := range entries {
		fmt.Fprintf(out, "  %-6d  %-20s  %-24s  %-24s  %s\n",
			e.ID,
			e.AnalyzedAt.Local().Format("2006-01-02 15:04:05"),
			shorten(e.Filename, 24),
			historyVerdict(e),
			shorten(e.SHA3, 16),
		)
	}
}

// historyVerdict formats the verdict column.
func historyVerdict(e database.ReportMetadata) string {
	if !e.HasVerdict {
		return "Error"
	}
	return fmt.Sprintf("%s (%d)", e.Verdict, e.Score)
}

// shorten bounds s to n runes for table columns.
func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
