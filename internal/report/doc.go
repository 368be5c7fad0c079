// Package report renders analysis reports.
//
// Three writers are provided:
//   - SimpleWriter: human-readable text for the terminal, optionally colored
//   - JSONWriter: the stable JSON document for tool integration
//   - MarkdownWriter: a shareable document with a score breakdown chart
//
// The report data itself lives in the model package; writers only format it.
// Writers implement the Writer interface and can be combined with MultiWriter.
package report
