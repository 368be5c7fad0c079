package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/stegscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeVerdict(md, report)
	w.writeEvidence(md, report)
	w.writeDetectors(md, report)
	w.writeIndicators(md, report)
	w.writeBitPlanes(md, report)
	w.writeMetadata(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteAll outputs each report as its own document section.
func (w *MarkdownWriter) WriteAll(reports []*model.Report) (int, error) {
	var total int
	for _, r := range reports {
		n, err := w.Write(r)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// writeHeader writes the report header with file information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("stegscan Report: " + report.Filename)
	md.PlainText("")

	rows := [][]string{
		{"File", "`" + cell(report.Filename) + "`"},
		{"Size", strconv.FormatInt(report.SizeBytes, 10) + " bytes"},
	}
	if report.SHA3 != "" {
		rows = append(rows, []string{"SHA3-256", "`" + report.SHA3 + "`"})
	}
	if report.Format != "" {
		rows = append(rows, []string{"Format", report.Format + " (" + report.Mode + ")"})
	}
	if d := report.Dimensions; d != nil {
		rows = append(rows, []string{"Dimensions", fmt.Sprintf("%dx%d", d.Width, d.Height)})
	}
	rows = append(rows,
		[]string{"Analyzed", report.AnalyzedAt.Format("2006-01-02 15:04:05 MST")},
		[]string{"Status", cell(statusText(report))},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeVerdict writes the classification alert, reasons and score breakdown.
func (w *MarkdownWriter) writeVerdict(md *markdown.Markdown, report *model.Report) {
	md.H2("Verdict")
	md.PlainText("")

	v := report.FinalReport
	if v == nil {
		md.Cautionf("No verdict: %s", report.Error)
		md.PlainText("")
		return
	}

	switch v.Classification {
	case model.ClassificationHighlySuspicious:
		md.Cautionf("%s (score %d/100). The image very likely carries hidden data.", v.Classification, v.Score)
	case model.ClassificationSuspicious:
		md.Warningf("%s (score %d/100). Some signals point to hidden data.", v.Classification, v.Score)
	default:
		md.Tip(fmt.Sprintf("%s (score %d/100).", v.Classification, v.Score))
	}
	md.PlainText("")

	md.BulletList(v.Reasons...)
	md.PlainText("")

	if len(v.Contributions) > 0 {
		w.writePieChart(md, v)
	}
}

// writePieChart writes a mermaid pie chart of rule contributions.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, v *model.Verdict) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Score Contributions"),
		piechart.WithShowData(true),
	)

	for _, c := range v.Contributions {
		if c.Weight > 0 {
			chart.LabelAndIntValue(c.Rule, uint64(c.Weight))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeEvidence writes the built-in statistical signals.
func (w *MarkdownWriter) writeEvidence(md *markdown.Markdown, report *model.Report) {
	md.H2("Evidence")
	md.PlainText("")

	if report.LSBAnalysis == nil && report.AIScore == nil {
		md.PlainText("No statistical evidence was collected.")
		md.PlainText("")
		return
	}

	var rows [][]string
	if l := report.LSBAnalysis; l != nil {
		rows = append(rows,
			[]string{"Mean LSB value", strconv.FormatFloat(l.MeanValue, 'f', 4, 64)},
			[]string{"LSB heuristic", string(l.Level)},
		)
	}
	if s := report.AIScore; s != nil {
		rows = append(rows, []string{
			"AI anomaly score",
			fmt.Sprintf("%d (%s confidence, model %s)", s.Score, s.Confidence, s.ModelVersion),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Signal", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeDetectors writes one row per external detector in invocation order.
func (w *MarkdownWriter) writeDetectors(md *markdown.Markdown, report *model.Report) {
	md.H2("Detectors")
	md.PlainText("")

	if report.Detectors.Len() == 0 {
		md.PlainText("No detectors were run.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, report.Detectors.Len())
	report.Detectors.Each(func(name string, r model.DetectorResult) {
		rows = append(rows, []string{
			"`" + name + "`",
			statusIcon(r.Status) + " " + r.Status.String(),
			strconv.Itoa(r.Payload.LineCount),
			strconv.Itoa(r.Payload.FindingCount),
			cell(detectorDetail(r)),
		})
	})

	md.Table(markdown.TableSet{
		Header: []string{"Detector", "Status", "Lines", "Findings", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")

	report.Detectors.Each(func(name string, r model.DetectorResult) {
		if len(r.Payload.Findings) == 0 {
			return
		}
		md.PlainText("### " + name + " findings")
		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlight("text"), strings.Join(r.Payload.Findings, "\n"))
		md.PlainText("")
	})
}

// writeIndicators writes the sensitive artifacts recovered from tool output.
func (w *MarkdownWriter) writeIndicators(md *markdown.Markdown, report *model.Report) {
	if len(report.Indicators) == 0 {
		return
	}

	md.H2("Indicators")
	md.PlainText("")

	rows := make([][]string, len(report.Indicators))
	for i, ind := range report.Indicators {
		rows[i] = []string{ind.Kind, ind.Name, "`" + cell(truncateString(ind.Value, 80)) + "`", ind.Source}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Name", "Value", "Source"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeBitPlanes writes the rendered bit-plane artifact list.
func (w *MarkdownWriter) writeBitPlanes(md *markdown.Markdown, report *model.Report) {
	set := report.BitPlanes
	if set == nil {
		return
	}

	md.H2("Bit Planes")
	md.PlainText("")

	if set.Status != model.StatusSuccess {
		md.Warningf("Bit-plane rendering failed: %s", set.Error)
		md.PlainText("")
		return
	}

	rows := make([][]string, len(set.Planes))
	for i, p := range set.Planes {
		rows[i] = []string{p.Name, "`" + p.Path + "`"}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Plane", "Path"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeMetadata writes embedded metadata sorted by tag.
func (w *MarkdownWriter) writeMetadata(md *markdown.Markdown, report *model.Report) {
	if len(report.Metadata) == 0 {
		return
	}

	md.H2("Metadata")
	md.PlainText("")

	keys := slices.Sorted(maps.Keys(report.Metadata))
	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{cell(k), cell(truncateString(report.Metadata[k], 80))}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Tag", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [stegscan](https://github.com/nao1215/stegscan)*")
	md.PlainText("")
}

// statusIcon returns an emoji for a detector status.
func statusIcon(s model.Status) string {
	switch s {
	case model.StatusSuccess:
		return "✅"
	case model.StatusWarning:
		return "⚠️"
	case model.StatusNotInstalled:
		return "➖"
	case model.StatusTimeout:
		return "⏱️"
	default:
		return "❌"
	}
}

// detectorDetail picks the most useful one-line description of a result.
func detectorDetail(r model.DetectorResult) string {
	switch {
	case r.Error != "":
		return truncateString(r.Error, 60)
	case r.Payload.HasFindings():
		return truncateString(r.Payload.Findings[0], 60)
	case len(r.Payload.Lines) > 0:
		return truncateString(r.Payload.Lines[0], 60)
	default:
		return "-"
	}
}

// cell makes a value safe for a table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
