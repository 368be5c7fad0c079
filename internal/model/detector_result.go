package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload holds the detector-specific data carried by a DetectorResult.
// A detector fills whichever fields match its output shape: ordered output
// lines, structured key/value fields, extracted findings, or a numeric score.
type Payload struct {
	// Lines is the (possibly truncated) output of the detector, one entry per line.
	Lines []string `json:"lines,omitempty"`

	// LineCount is the total number of output lines before truncation.
	LineCount int `json:"line_count"`

	// Truncated is true when Lines or Findings holds only a prefix of the output.
	Truncated bool `json:"truncated,omitempty"`

	// Findings lists the output entries the parser considers evidence
	// (signature rows, extracted text, anomaly lines).
	Findings []string `json:"findings,omitempty"`

	// FindingCount is the total number of findings before truncation.
	FindingCount int `json:"finding_count"`

	// Fields carries structured output such as "count" for the strings tool.
	Fields map[string]string `json:"fields,omitempty"`

	// Score is a confidence in percent, set by parsers that yield one
	// (stegdetect).
	Score *float64 `json:"score,omitempty"`
}

// HasFindings reports whether the parser extracted at least one finding.
func (p Payload) HasFindings() bool {
	return p.FindingCount > 0
}

// DetectorResult is the canonical result produced by every detector.
type DetectorResult struct {
	// Status is the normalized outcome of the invocation.
	Status Status `json:"status"`

	// Payload is the parsed output. Empty for detectors that never ran.
	Payload Payload `json:"payload"`

	// Error is a human-readable failure message for NotInstalled, Timeout and Error.
	Error string `json:"error,omitempty"`

	// ExitCode is the process exit code when the detector ran.
	ExitCode int `json:"exit_code"`

	// DurationMS is the wall-clock time spent in the invocation.
	DurationMS int64 `json:"duration_ms"`
}

// detectorEntry is one name/result pair in DetectorResults.
type detectorEntry struct {
	name   string
	result DetectorResult
}

// DetectorResults is an insertion-ordered mapping of detector name to result.
// It serializes to a JSON object whose keys keep the insertion order, which
// is the order detectors were registered for the analysis.
type DetectorResults struct {
	entries []detectorEntry
	index   map[string]int
}

// NewDetectorResults creates an empty DetectorResults.
func NewDetectorResults() *DetectorResults {
	return &DetectorResults{index: make(map[string]int)}
}

// Set stores a result. Setting an existing name replaces the result
// in place and keeps its original position.
func (d *DetectorResults) Set(name string, result DetectorResult) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[name]; ok {
		d.entries[i].result = result
		return
	}
	d.index[name] = len(d.entries)
	d.entries = append(d.entries, detectorEntry{name: name, result: result})
}

// Get returns the result for a detector.
func (d *DetectorResults) Get(name string) (DetectorResult, bool) {
	if d == nil {
		return DetectorResult{}, false
	}
	i, ok := d.index[name]
	if !ok {
		return DetectorResult{}, false
	}
	return d.entries[i].result, true
}

// Len returns the number of stored results.
func (d *DetectorResults) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Names returns detector names in insertion order.
func (d *DetectorResults) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.entries))
	for i, e := range d.entries {
		names[i] = e.name
	}
	return names
}

// Each calls fn for every result in insertion order.
func (d *DetectorResults) Each(fn func(name string, result DetectorResult)) {
	if d == nil {
		return
	}
	for _, e := range d.entries {
		fn(e.name, e.result)
	}
}

// MarshalJSON encodes the results as a JSON object in insertion order.
func (d *DetectorResults) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range d.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.result)
		if err != nil {
			return nil, fmt.Errorf("failed to encode detector %s: %w", e.name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the key order of the document.
func (d *DetectorResults) UnmarshalJSON(data []byte) error {
	d.entries = nil
	d.index = make(map[string]int)

	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("detector results: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("detector results: expected key, got %v", tok)
		}
		var result DetectorResult
		if err := dec.Decode(&result); err != nil {
			return fmt.Errorf("detector results: %s: %w", name, err)
		}
		d.Set(name, result)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
