package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/nao1215/stegscan/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// previewLines is how many output lines verbose mode prints per detector.
const previewLines = 10

// SimpleWriter outputs human-readable text reports for terminal display.
// Color is off unless enabled with WithColor so that piped output stays plain.
type SimpleWriter struct {
	baseWriter

	// verbose enables additional detail in the output.
	verbose bool

	// palette holds the colors used for verdicts and statuses.
	palette palette

	title cases.Caser
}

// palette groups the terminal colors of the writer.
type palette struct {
	safe       *color.Color
	suspicious *color.Color
	alert      *color.Color
	muted      *color.Color
	heading    *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		safe:       color.New(color.FgGreen),
		suspicious: color.New(color.FgYellow),
		alert:      color.New(color.FgRed, color.Bold),
		muted:      color.New(color.FgHiBlack),
		heading:    color.New(color.FgCyan, color.Bold),
	}
	for _, c := range []*color.Color{p.safe, p.suspicious, p.alert, p.muted, p.heading} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with detector output previews.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithColor enables ANSI colors.
func WithColor(enabled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.palette = newPalette(enabled)
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		palette:    newPalette(false),
		title:      cases.Title(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one report in human-readable format.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeVerdict(&sb, report)
	w.writeEvidence(&sb, report)
	w.writeDetectors(&sb, report)
	w.writeIndicators(&sb, report)
	w.writeBitPlanes(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteAll outputs every report followed by a classification tally.
func (w *SimpleWriter) WriteAll(reports []*model.Report) (int, error) {
	var total int
	for _, r := range reports {
		n, err := w.Write(r)
		total += n
		if err != nil {
			return total, err
		}
	}

	if len(reports) < 2 {
		return total, nil
	}

	var safe, suspicious, highly, failed int
	for _, r := range reports {
		switch {
		case r.FinalReport == nil:
			failed++
		case r.FinalReport.Classification == model.ClassificationHighlySuspicious:
			highly++
		case r.FinalReport.Classification == model.ClassificationSuspicious:
			suspicious++
		default:
			safe++
		}
	}

	n, err := fmt.Fprintf(w.output, "\n%d files: %s, %s, %s, %s\n",
		len(reports),
		w.palette.safe.Sprintf("%d safe", safe),
		w.palette.suspicious.Sprintf("%d suspicious", suspicious),
		w.palette.alert.Sprintf("%d highly suspicious", highly),
		w.palette.muted.Sprintf("%d failed", failed),
	)
	return total + n, err
}

// writeSection writes a section title between rules.
func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(w.palette.heading.Sprint(title))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with file information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          STEGSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "File:       %s\n", report.Filename)
	fmt.Fprintf(sb, "Size:       %d bytes\n", report.SizeBytes)
	if report.SHA3 != "" {
		fmt.Fprintf(sb, "SHA3-256:   %s\n", report.SHA3)
	}
	if report.Format != "" {
		fmt.Fprintf(sb, "Format:     %s (%s)\n", report.Format, report.Mode)
	}
	if d := report.Dimensions; d != nil {
		fmt.Fprintf(sb, "Dimensions: %dx%d\n", d.Width, d.Height)
	}
	fmt.Fprintf(sb, "Analyzed:   %s\n", report.AnalyzedAt.Format("2006-01-02 15:04:05 MST"))

	status := statusText(report)
	if report.Error != "" {
		status = w.palette.alert.Sprint(status)
	}
	fmt.Fprintf(sb, "Status:     %s\n\n", status)
}

// writeVerdict writes the classification and its reasons.
func (w *SimpleWriter) writeVerdict(sb *strings.Builder, report *model.Report) {
	v := report.FinalReport
	if v == nil {
		return
	}

	w.writeSection(sb, "VERDICT")

	c := w.palette.safe
	switch v.Classification {
	case model.ClassificationHighlySuspicious:
		c = w.palette.alert
	case model.ClassificationSuspicious:
		c = w.palette.suspicious
	}
	fmt.Fprintf(sb, "  %s (score %d/100)\n\n", c.Sprint(v.Classification.String()), v.Score)

	for _, reason := range v.Reasons {
		fmt.Fprintf(sb, "  * %s\n", reason)
	}
	if w.verbose && len(v.Contributions) > 0 {
		sb.WriteString("\n")
		for _, contrib := range v.Contributions {
			fmt.Fprintf(sb, "    +%-3d %s\n", contrib.Weight, contrib.Rule)
		}
	}
	sb.WriteString("\n")
}

// writeEvidence writes the statistical signals.
func (w *SimpleWriter) writeEvidence(sb *strings.Builder, report *model.Report) {
	if report.LSBAnalysis == nil && report.AIScore == nil {
		return
	}

	w.writeSection(sb, "EVIDENCE")

	if l := report.LSBAnalysis; l != nil {
		fmt.Fprintf(sb, "  LSB mean:   %.4f (%s)\n", l.MeanValue, l.Level)
	}
	if s := report.AIScore; s != nil {
		fmt.Fprintf(sb, "  AI score:   %d (%s confidence, %s)\n", s.Score, s.Confidence, s.ModelVersion)
	}
	sb.WriteString("\n")
}

// writeDetectors writes one line per detector.
func (w *SimpleWriter) writeDetectors(sb *strings.Builder, report *model.Report) {
	if report.Detectors.Len() == 0 {
		return
	}

	w.writeSection(sb, "DETECTORS")

	report.Detectors.Each(func(name string, r model.DetectorResult) {
		indicator := w.statusIndicator(r.Status)
		label := w.title.String(strings.ReplaceAll(name, "_", " "))
		fmt.Fprintf(sb, "  [%s] %-16s %-13s %s\n", indicator, label, r.Status, w.summary(r))

		if !w.verbose {
			return
		}
		lines := r.Payload.Findings
		if len(lines) == 0 {
			lines = r.Payload.Lines
		}
		for i, line := range lines {
			if i == previewLines {
				fmt.Fprintf(sb, "        %s\n", w.palette.muted.Sprintf("... %d more", len(lines)-previewLines))
				break
			}
			fmt.Fprintf(sb, "        %s\n", truncateString(line, 100))
		}
	})
	sb.WriteString("\n")
}

// summary returns the short result column for a detector.
func (w *SimpleWriter) summary(r model.DetectorResult) string {
	switch {
	case r.Error != "":
		return w.palette.muted.Sprint(truncateString(r.Error, 40))
	case r.Payload.FindingCount > 0:
		return fmt.Sprintf("%d findings", r.Payload.FindingCount)
	default:
		return fmt.Sprintf("%d lines", r.Payload.LineCount)
	}
}

// statusIndicator returns a colored marker for a detector status.
func (w *SimpleWriter) statusIndicator(s model.Status) string {
	switch s {
	case model.StatusSuccess:
		return w.palette.safe.Sprint("+")
	case model.StatusWarning:
		return w.palette.suspicious.Sprint("!")
	case model.StatusNotInstalled:
		return w.palette.muted.Sprint("-")
	case model.StatusTimeout:
		return w.palette.suspicious.Sprint("T")
	default:
		return w.palette.alert.Sprint("x")
	}
}

// writeIndicators writes recovered artifacts, one per line.
func (w *SimpleWriter) writeIndicators(sb *strings.Builder, report *model.Report) {
	if len(report.Indicators) == 0 {
		return
	}

	w.writeSection(sb, "INDICATORS")

	for _, ind := range report.Indicators {
		fmt.Fprintf(sb, "  %-20s %s %s\n",
			ind.Name,
			w.palette.alert.Sprint(truncateString(ind.Value, 70)),
			w.palette.muted.Sprint("("+ind.Source+")"),
		)
	}
	sb.WriteString("\n")
}

// writeBitPlanes writes where the bit-plane images were stored.
func (w *SimpleWriter) writeBitPlanes(sb *strings.Builder, report *model.Report) {
	set := report.BitPlanes
	if set == nil {
		return
	}

	w.writeSection(sb, "BIT PLANES")

	if set.Status != model.StatusSuccess {
		fmt.Fprintf(sb, "  %s\n\n", w.palette.alert.Sprint("rendering failed: "+set.Error))
		return
	}

	fmt.Fprintf(sb, "  %d planes rendered\n", len(set.Planes))
	if w.verbose {
		for _, p := range set.Planes {
			fmt.Fprintf(sb, "    %-28s %s\n", p.Name, p.Path)
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
