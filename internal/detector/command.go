package detector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/stegscan/internal/model"
)

// DefaultTimeout is the per-call deadline of a command detector.
const DefaultTimeout = 30 * time.Second

// DefaultMaxLines bounds the lines kept in a payload when a Spec sets none.
const DefaultMaxLines = 500

// waitDelay is how long a killed command may keep its output pipes open.
const waitDelay = time.Second

// Placeholders expanded in command templates.
const (
	PlaceholderFile   = "{file}"
	PlaceholderOutDir = "{outdir}"
)

// lookPath resolves a tool binary. Tests replace it to simulate missing tools.
var lookPath = exec.LookPath

// Detector is anything that inspects a file and yields a DetectorResult.
type Detector interface {
	// Name returns the detector name used as the result key.
	Name() string

	// Detect inspects the file at path. It never fails; every failure is
	// expressed through the returned result.
	Detect(ctx context.Context, path string) model.DetectorResult
}

// Spec describes one external tool.
type Spec struct {
	// Name is the result key, e.g. "binwalk".
	Name string

	// Command is the argument vector. The first entry is the binary.
	// PlaceholderFile and PlaceholderOutDir are expanded per call.
	Command []string

	// Stdin is written to the tool's standard input when non-empty.
	Stdin string

	// Parser names the output parser. Empty selects ParserLines.
	Parser string

	// MaxLines bounds the lines and findings kept in the payload.
	MaxLines int

	// OutputDir requests a fresh output directory for PlaceholderOutDir.
	OutputDir bool
}

// Binary returns the executable name of the spec.
func (s Spec) Binary() string {
	if len(s.Command) == 0 {
		return ""
	}
	return s.Command[0]
}

// Validate checks that the spec can be turned into a detector.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("detector name must not be empty")
	}
	if s.Binary() == "" {
		return fmt.Errorf("detector %s: command must not be empty", s.Name)
	}
	if _, err := ParserFor(s.Parser); err != nil {
		return fmt.Errorf("detector %s: %w", s.Name, err)
	}
	if s.MaxLines < 0 {
		return fmt.Errorf("detector %s: max_lines must not be negative", s.Name)
	}
	return nil
}

// CommandDetector runs one external tool described by a Spec.
type CommandDetector struct {
	// spec is the tool description.
	spec Spec

	// parser converts output lines to a payload.
	parser Parser

	// timeout is the per-call deadline.
	timeout time.Duration

	// outputRoot is where per-call output directories are created.
	outputRoot string

	// logger is used for debug output.
	logger *slog.Logger
}

// Option configures a CommandDetector.
type Option func(*CommandDetector)

// WithTimeout sets the per-call deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(d *CommandDetector) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithOutputRoot sets the directory under which output directories are created.
func WithOutputRoot(dir string) Option {
	return func(d *CommandDetector) {
		d.outputRoot = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *CommandDetector) {
		d.logger = logger
	}
}

// NewCommandDetector creates a detector for spec.
func NewCommandDetector(spec Spec, opts ...Option) (*CommandDetector, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	parser, err := ParserFor(spec.Parser)
	if err != nil {
		return nil, err
	}
	if spec.MaxLines == 0 {
		spec.MaxLines = DefaultMaxLines
	}
	spec.Command = append([]string(nil), spec.Command...)

	d := &CommandDetector{
		spec:       spec,
		parser:     parser,
		timeout:    DefaultTimeout,
		outputRoot: os.TempDir(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d, nil
}

// Name implements Detector.
func (d *CommandDetector) Name() string {
	return d.spec.Name
}

// Spec returns a copy of the detector's spec.
func (d *CommandDetector) Spec() Spec {
	s := d.spec
	s.Command = append([]string(nil), d.spec.Command...)
	return s
}

// Available reports whether the tool binary can be found.
func (d *CommandDetector) Available() bool {
	_, err := lookPath(d.spec.Binary())
	return err == nil
}

// invokeError is a detector failure carrying a taxonomy sentinel.
// Its message is the text shown in the result.
type invokeError struct {
	kind error
	msg  string
}

func (e *invokeError) Error() string { return e.msg }

func (e *invokeError) Unwrap() error { return e.kind }

func failure(kind error, format string, args ...any) error {
	return &invokeError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// statusOf maps a failure to its result status.
func statusOf(err error) model.Status {
	switch {
	case errors.Is(err, model.ErrDetectorUnavailable):
		return model.StatusNotInstalled
	case errors.Is(err, model.ErrDetectorTimeout):
		return model.StatusTimeout
	default:
		return model.StatusError
	}
}

// Detect implements Detector.
func (d *CommandDetector) Detect(ctx context.Context, path string) model.DetectorResult {
	start := time.Now()
	result := d.invoke(ctx, path)
	result.DurationMS = time.Since(start).Milliseconds()

	d.logger.Debug("detector finished",
		"detector", d.spec.Name,
		"status", result.Status.String(),
		"exit_code", result.ExitCode,
		"duration_ms", result.DurationMS,
	)
	return result
}

func (d *CommandDetector) invoke(ctx context.Context, path string) model.DetectorResult {
	binary, err := lookPath(d.spec.Binary())
	if err != nil {
		return failed(failure(model.ErrDetectorUnavailable, "%s command not found", d.spec.Binary()))
	}

	outDir := ""
	if d.spec.OutputDir {
		outDir, err = d.makeOutputDir()
		if err != nil {
			return failed(err)
		}
	}

	args := d.expand(path, outDir)
	d.logger.Debug("running detector", "detector", d.spec.Name, "args", args)

	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, binary, args...)
	cmd.WaitDelay = waitDelay
	if d.spec.Stdin != "" {
		cmd.Stdin = strings.NewReader(d.spec.Stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	status := model.StatusSuccess
	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			return failed(failure(model.ErrDetectorRuntime, "analysis cancelled: %v", ctx.Err()))
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return failed(failure(model.ErrDetectorTimeout, "command timed out after %s", d.timeout))
		case errors.As(runErr, &exitErr):
			status = model.StatusWarning
			exitCode = exitErr.ExitCode()
		case errors.Is(runErr, exec.ErrWaitDelay):
			// Exited cleanly; a child kept the output pipes open.
		default:
			return failed(failure(model.ErrDetectorRuntime, "%s: %v", d.spec.Binary(), runErr))
		}
	}

	payload, err := d.parse(SplitOutput(stdout.String(), stderr.String()))
	if err != nil {
		return failed(err)
	}
	if outDir != "" {
		if payload.Fields == nil {
			payload.Fields = make(map[string]string)
		}
		payload.Fields["output_dir"] = outDir
	}

	return model.DetectorResult{
		Status:   status,
		Payload:  payload,
		ExitCode: exitCode,
	}
}

// parse runs the parser, converting a panic into a runtime failure.
func (d *CommandDetector) parse(lines []string) (payload model.Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = failure(model.ErrDetectorRuntime, "%s parser failed: %v", d.spec.Name, r)
		}
	}()
	return d.parser(lines, d.spec.MaxLines), nil
}

// expand substitutes the placeholders of the command template.
func (d *CommandDetector) expand(path, outDir string) []string {
	// A leading dash would be read as a flag by most tools.
	if strings.HasPrefix(path, "-") {
		path = "." + string(filepath.Separator) + path
	}
	replacer := strings.NewReplacer(PlaceholderFile, path, PlaceholderOutDir, outDir)

	args := make([]string, 0, len(d.spec.Command)-1)
	for _, arg := range d.spec.Command[1:] {
		args = append(args, replacer.Replace(arg))
	}
	return args
}

// makeOutputDir creates a fresh, empty output directory for one call.
func (d *CommandDetector) makeOutputDir() (string, error) {
	root := filepath.Join(d.outputRoot, d.spec.Name)
	if err := os.MkdirAll(root, 0o750); err != nil {
		return "", failure(model.ErrArtifactIO, "failed to create output directory: %v", err)
	}
	dir, err := os.MkdirTemp(root, "run-")
	if err != nil {
		return "", failure(model.ErrArtifactIO, "failed to create output directory: %v", err)
	}
	return dir, nil
}

// failed builds the result for a detector that did not run.
func failed(err error) model.DetectorResult {
	return model.DetectorResult{
		Status:   statusOf(err),
		Error:    err.Error(),
		ExitCode: -1,
	}
}
