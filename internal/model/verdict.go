package model

import "fmt"

// Classification is the verdict class derived from the suspicion score.
type Classification int

const (
	// ClassificationSafe means no meaningful converging evidence.
	ClassificationSafe Classification = iota
	// ClassificationSuspicious means moderate converging evidence.
	ClassificationSuspicious
	// ClassificationHighlySuspicious means strong converging evidence.
	ClassificationHighlySuspicious
)

// String returns the human-readable representation of the classification.
func (c Classification) String() string {
	switch c {
	case ClassificationSafe:
		return "Safe"
	case ClassificationSuspicious:
		return "Suspicious"
	case ClassificationHighlySuspicious:
		return "Highly Suspicious"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Classification) MarshalText() ([]byte, error) {
	if c < ClassificationSafe || c > ClassificationHighlySuspicious {
		return nil, fmt.Errorf("unknown classification %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Classification) UnmarshalText(text []byte) error {
	for _, candidate := range []Classification{
		ClassificationSafe, ClassificationSuspicious, ClassificationHighlySuspicious,
	} {
		if candidate.String() == string(text) {
			*c = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown classification %q", string(text))
}

// NoAnomaliesReason is the single reason reported when no rule triggers.
const NoAnomaliesReason = "No significant anomalies detected."

// Contribution records the weight a triggered rule added to the score.
type Contribution struct {
	Rule   string `json:"rule"`
	Weight int    `json:"weight"`
}

// Verdict is the deterministic outcome of evaluating an EvidenceSet.
type Verdict struct {
	// Score is the clamped suspicion score in [0,100].
	Score int `json:"suspicion_score"`

	// Classification is derived from Score and the configured thresholds.
	Classification Classification `json:"verdict"`

	// Reasons lists a reason per triggered rule in rule-table order.
	// It is never empty.
	Reasons []string `json:"reasons"`

	// Contributions lists the triggered rules and their weights in rule-table order.
	Contributions []Contribution `json:"contributions,omitempty"`
}
