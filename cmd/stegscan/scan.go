package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/nao1215/stegscan/internal/bitplane"
	"github.com/nao1215/stegscan/internal/config"
	"github.com/nao1215/stegscan/internal/database"
	"github.com/nao1215/stegscan/internal/detector"
	"github.com/nao1215/stegscan/internal/log"
	"github.com/nao1215/stegscan/internal/model"
	"github.com/nao1215/stegscan/internal/pipeline"
	"github.com/nao1215/stegscan/internal/report"
	"github.com/nao1215/stegscan/internal/sample"
	"github.com/nao1215/stegscan/internal/verdict"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [image]...",
		Short: "Analyze image files for hidden data",
		Long: `Scan analyzes one or more image files for signs of steganography.

For every file it computes:
- The mean of the least significant bits and a heuristic suspicion level
- An anomaly score from the scoring model
- Bit-plane renderings of the low bits of every channel
- The output of every configured steganalysis tool found on PATH

The evidence is combined into a 0-100 score and a verdict. A file that
cannot be decoded gets a report with an error instead of a verdict; the
remaining files are still analyzed.

Examples:
  # Analyze a single image
  stegscan scan cat.png

  # Analyze several images, four at a time
  stegscan scan -b 4 images/*.png

  # Output a JSON report
  stegscan scan --json cat.png

  # Skip slow tools and extend the tool deadline
  stegscan scan -d stegoveritas -d bulk_extractor -t 2m cat.png

  # Render only the least significant bit plane
  stegscan scan --bits 0 cat.png

  # Archive the reports (see 'stegscan history')
  stegscan scan --save cat.png`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .stegscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-color", false,
		"Disable colored output")

	// Artifact flags
	cmd.Flags().StringP("artifact-dir", "a", config.XDGArtifactDir(),
		"Directory for bit-plane images")
	cmd.Flags().IntSlice("bits", bitplane.DefaultBits,
		"Bit positions rendered per channel (0-7)")

	// Detector flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultDetectorTimeout,
		"Deadline for each external tool")
	cmd.Flags().IntP("concurrency", "C", config.DefaultDetectorConcurrency,
		"Number of external tools run at once per file")
	cmd.Flags().StringArrayP("disable", "d", nil,
		"Detector that must not run (repeatable)")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of files analyzed concurrently")

	// Archive flags
	cmd.Flags().Bool("save", false,
		"Archive the reports in the report database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the report database")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the configuration file and the flags.
// Settings from the file override the defaults; flags given on the command
// line override the file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly given file must exist. Without one the search falls
	// back to the defaults silently.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(f)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.NoColor, err = flags.GetBool("no-color"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
		return nil, err
	}

	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	if flags.Changed("artifact-dir") {
		if cfg.ArtifactDir, err = flags.GetString("artifact-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("bits") {
		if cfg.Bits, err = flags.GetIntSlice("bits"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.DetectorTimeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.DetectorConcurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return nil, err
		}
	}

	disabled, err := flags.GetStringArray("disable")
	if err != nil {
		return nil, err
	}
	cfg.Disabled = append(cfg.Disabled, disabled...)

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args

	return cfg, nil
}

// newPipelineFactory builds the shared collaborators once and returns a
// factory for per-file pipelines.
func newPipelineFactory(cfg *config.Config, logger *slog.Logger) (func() *pipeline.Pipeline, error) {
	specs := cfg.File.Specs(cfg.Disabled, cfg.MaxLines)
	cmds, err := detector.Build(specs,
		detector.WithTimeout(cfg.DetectorTimeout),
		detector.WithOutputRoot(filepath.Join(config.XDGCacheDir(), "output")),
		detector.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid detector catalog: %w", err)
	}

	channels, err := cfg.File.Channels()
	if err != nil {
		return nil, fmt.Errorf("invalid bit-plane channels: %w", err)
	}
	decomposer := bitplane.NewDecomposer(cfg.ArtifactDir,
		bitplane.WithBits(cfg.Bits...),
		bitplane.WithChannels(channels...),
		bitplane.WithURLPrefix(cfg.URLPrefix),
		bitplane.WithLogger(logger),
	)

	rules, err := cfg.File.Rules()
	if err != nil {
		return nil, fmt.Errorf("invalid scoring rules: %w", err)
	}
	engine, err := verdict.NewEngine(rules,
		verdict.WithThresholds(cfg.File.Thresholds()),
		verdict.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid scoring rules: %w", err)
	}

	build := func() (*pipeline.Pipeline, error) {
		return pipeline.DefaultPipeline(
			[]pipeline.Option{pipeline.WithLogger(logger)},
			pipeline.WithPipelineDetectors(detector.AsDetectors(cmds)),
			pipeline.WithPipelineDetectorConcurrency(cfg.DetectorConcurrency),
			pipeline.WithPipelineDecomposer(decomposer),
			pipeline.WithPipelineEngine(engine),
			pipeline.WithPipelineSampleOptions(sample.WithMaxPixels(cfg.MaxPixels)),
			pipeline.WithPipelineLogger(logger),
		)
	}
	if _, err := build(); err != nil {
		return nil, err
	}

	return func() *pipeline.Pipeline {
		p, _ := build() //nolint:errcheck // All collaborators are set; validated above
		return p
	}, nil
}

// runScan analyzes all targets and writes the reports.
func runScan(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	logger.Info("starting scan",
		"targets", len(cfg.Targets),
		"batchSize", cfg.BatchSize,
		"detectorConcurrency", cfg.DetectorConcurrency,
		"artifactDir", cfg.ArtifactDir,
	)

	factory, err := newPipelineFactory(cfg, logger)
	if err != nil {
		return err
	}

	startTime := time.Now()
	opts := []pipeline.BatchOption{
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	}
	if len(cfg.Targets) > 1 {
		opts = append(opts, pipeline.WithProgress(func(done, total int, a *model.Analysis) {
			fmt.Fprintln(stderr, progressLine(done, total, a))
		}))
	}
	bp := pipeline.NewBatchProcessor(factory, opts...)
	analyses, batchErr := bp.ProcessBatch(ctx, cfg.Targets)

	reports := make([]*model.Report, 0, len(analyses))
	for _, a := range analyses {
		if a != nil {
			reports = append(reports, model.NewReport(a))
		}
	}

	logger.Info("scan completed",
		"reports", len(reports),
		"elapsed", time.Since(startTime).Round(time.Millisecond),
	)

	if err := outputReports(cfg, stdout, reports); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.SaveToDB {
		if err := saveReports(ctx, cfg, stderr, reports, logger); err != nil {
			return err
		}
	}

	if batchErr != nil {
		return fmt.Errorf("scan interrupted: %w", batchErr)
	}
	return nil
}

// progressLine describes one finished analysis of a batch.
func progressLine(done, total int, a *model.Analysis) string {
	result := "Error"
	if v := a.Verdict; v != nil && !a.Failed() {
		result = fmt.Sprintf("%s (%d)", v.Classification, v.Score)
	}
	return fmt.Sprintf("[%d/%d] %s: %s in %dms", done, total, a.File.Name, result, a.Elapsed())
}

// newReportWriter selects the writer for the requested format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		useColor := !cfg.NoColor && !color.NoColor && cfg.ReportFile == ""
		return report.NewSimpleWriter(output,
			report.WithColor(useColor),
			report.WithVerbose(cfg.Verbose),
		)
	}
}

// outputReports writes the reports in the requested format.
// A single JSON report is written as an object, several as an array.
func outputReports(cfg *config.Config, stdout io.Writer, reports []*model.Report) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports may contain extracted payloads; keep them owner-readable only.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	w := newReportWriter(cfg, output)
	if cfg.JSONReport && len(reports) == 1 {
		_, err := w.Write(reports[0])
		return err
	}
	_, err := w.WriteAll(reports)
	return err
}

// saveReports archives the reports. A report that cannot be stored is
// logged and skipped.
func saveReports(ctx context.Context, cfg *config.Config, stderr io.Writer, reports []*model.Report, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	saved := 0
	for _, r := range reports {
		id, err := db.SaveReport(ctx, r)
		if err != nil {
			logger.Error("failed to save report", "file", r.Filename, "error", err)
			continue
		}
		logger.Debug("report saved", "file", r.Filename, "id", id)
		saved++
	}

	fmt.Fprintf(stderr, "Saved %d of %d reports to %s\n", saved, len(reports), db.Path())
	return nil
}
