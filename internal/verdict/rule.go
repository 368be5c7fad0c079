package verdict

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nao1215/stegscan/internal/model"
)

// Kind selects the trigger condition of a rule.
type Kind string

const (
	// KindLSB triggers when the LSB suspicion level is not Low.
	KindLSB Kind = "lsb"
	// KindAIScore triggers when the anomaly score exceeds Threshold.
	KindAIScore Kind = "ai_score"
	// KindFindings triggers when the detector has Status and at least
	// MinFindings findings (minimum one).
	KindFindings Kind = "findings"
	// KindStatus triggers when the detector has Status.
	KindStatus Kind = "status"
	// KindLineCount triggers when the detector has Status and more than
	// Threshold output lines.
	KindLineCount Kind = "line_count"
	// KindIndicators triggers when at least MinFindings (minimum one)
	// indicators were found, only those of Detector when it is set.
	KindIndicators Kind = "indicators"
)

// Rule is one entry of the rule table.
type Rule struct {
	// Name identifies the rule in contributions.
	Name string

	// Kind is the trigger condition.
	Kind Kind

	// Detector is the detector result the rule inspects, if any.
	Detector string

	// Status is the detector status the rule requires.
	Status model.Status

	// Threshold is the exclusive lower bound for KindAIScore and KindLineCount.
	Threshold int

	// MinFindings is the minimum finding count for KindFindings.
	MinFindings int

	// Weight is added to the score when the rule triggers.
	Weight int

	// Reason is the explanation appended when the rule triggers.
	// It may contain {score}, {lsb_mean}, {findings}, {lines}, {indicators}
	// and {detector}.
	Reason string
}

// detectorKinds are the built-in kinds that inspect a detector result.
var detectorKinds = map[Kind]bool{
	KindFindings:  true,
	KindStatus:    true,
	KindLineCount: true,
}

// Errors returned by rule validation.
var (
	ErrRuleName     = errors.New("rule name must not be empty")
	ErrRuleKind     = errors.New("unknown rule kind")
	ErrRuleWeight   = errors.New("rule weight must not be negative")
	ErrRuleDetector = errors.New("rule requires a detector")
	ErrRuleStatus   = errors.New("rule status must be Success or Warning")
	ErrDuplicate    = errors.New("duplicate rule name")
	ErrThresholds   = errors.New("thresholds must satisfy 0 <= safe_max < suspicious_max <= 100")
)

// DefaultRules returns the built-in rule table.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   "lsb_statistic",
			Kind:   KindLSB,
			Weight: 20,
			Reason: "LSB statistics indicate potential hidden data (heuristic: mean LSB {lsb_mean} is close to uniform).",
		},
		{
			Name:      "ai_anomaly",
			Kind:      KindAIScore,
			Threshold: 60,
			Weight:    30,
			Reason:    "AI anomaly scorer detected anomalies (Score: {score}).",
		},
		{
			Name:        "embedded_signatures",
			Kind:        KindFindings,
			Detector:    "binwalk",
			Status:      model.StatusSuccess,
			MinFindings: 1,
			Weight:      40,
			Reason:      "Binwalk detected embedded files or signatures ({findings} found).",
		},
		{
			Name:        "pixel_structure",
			Kind:        KindFindings,
			Detector:    "zsteg",
			Status:      model.StatusSuccess,
			MinFindings: 1,
			Weight:      40,
			Reason:      "Zsteg found hidden data in PNG/BMP structure.",
		},
		{
			Name:     "format_validator",
			Kind:     KindStatus,
			Detector: "pngcheck",
			Status:   model.StatusWarning,
			Weight:   15,
			Reason:   "PNGCheck found structural inconsistencies in the image.",
		},
		{
			Name:      "string_density",
			Kind:      KindLineCount,
			Detector:  "strings",
			Status:    model.StatusSuccess,
			Threshold: 1000,
			Weight:    10,
			Reason:    "Strings extracted an unusually high number of printable strings ({lines}).",
		},
		{
			Name:        "payload_reveal",
			Kind:        KindFindings,
			Detector:    "stegano",
			Status:      model.StatusSuccess,
			MinFindings: 1,
			Weight:      50,
			Reason:      "Stegano successfully revealed hidden text.",
		},
	}
}

// validate checks a rule against the registered kinds.
func (r Rule) validate(triggers map[Kind]Trigger) error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrRuleName
	}
	if _, ok := triggers[r.Kind]; !ok {
		return fmt.Errorf("rule %s: %w %q", r.Name, ErrRuleKind, r.Kind)
	}
	if r.Weight < 0 {
		return fmt.Errorf("rule %s: %w", r.Name, ErrRuleWeight)
	}
	if detectorKinds[r.Kind] {
		if r.Detector == "" {
			return fmt.Errorf("rule %s: %w", r.Name, ErrRuleDetector)
		}
		if !r.Status.Ran() {
			return fmt.Errorf("rule %s: %w", r.Name, ErrRuleStatus)
		}
	}
	return nil
}

// reason expands the placeholders of the rule's reason.
func (r Rule) reason(e *model.EvidenceSet) string {
	if r.Reason == "" {
		return fmt.Sprintf("Rule %s triggered.", r.Name)
	}

	score, mean, findings, lines := "n/a", "n/a", "0", "0"
	if e.AIScore != nil {
		score = strconv.Itoa(e.AIScore.Score)
	}
	if e.LSB != nil {
		mean = strconv.FormatFloat(e.LSB.MeanValue, 'f', 4, 64)
	}
	if result, ok := e.Detectors.Get(r.Detector); ok {
		findings = strconv.Itoa(result.Payload.FindingCount)
		lines = strconv.Itoa(result.Payload.LineCount)
	}

	return strings.NewReplacer(
		"{score}", score,
		"{indicators}", strconv.Itoa(indicatorCount(r, e)),
		"{lsb_mean}", mean,
		"{findings}", findings,
		"{lines}", lines,
		"{detector}", r.Detector,
	).Replace(r.Reason)
}

// indicatorCount counts the indicators relevant to r.
func indicatorCount(r Rule, e *model.EvidenceSet) int {
	if r.Detector == "" {
		return len(e.Indicators)
	}
	n := 0
	for _, ind := range e.Indicators {
		if ind.Source == r.Detector {
			n++
		}
	}
	return n
}
