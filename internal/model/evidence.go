package model

import (
	"fmt"
	"strings"
)

// SuspicionLevel is the heuristic level derived from the LSB mean.
type SuspicionLevel string

const (
	// SuspicionLow means the LSB distribution looks like natural image noise.
	SuspicionLow SuspicionLevel = "Low"
	// SuspicionMedium means the LSB distribution is close to uniform.
	SuspicionMedium SuspicionLevel = "Medium"
)

// LSBStatistic is the result of the least-significant-bit test.
// It is a heuristic and never proof of an embedded payload.
type LSBStatistic struct {
	// MeanValue is the mean of (component & 1) over every RGB component, in [0,1].
	MeanValue float64 `json:"mean_lsb_value"`

	// Level classifies MeanValue.
	Level SuspicionLevel `json:"heuristic_suspicion"`
}

// Channel identifies an RGB color channel.
type Channel int

const (
	// ChannelRed is the red component.
	ChannelRed Channel = iota
	// ChannelGreen is the green component.
	ChannelGreen
	// ChannelBlue is the blue component.
	ChannelBlue
)

// AllChannels lists the channels in decomposition order.
var AllChannels = []Channel{ChannelRed, ChannelGreen, ChannelBlue}

// String returns the channel name as used in artifact names.
func (c Channel) String() string {
	switch c {
	case ChannelRed:
		return "Red"
	case ChannelGreen:
		return "Green"
	case ChannelBlue:
		return "Blue"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Channel) MarshalText() ([]byte, error) {
	if c < ChannelRed || c > ChannelBlue {
		return nil, fmt.Errorf("unknown channel %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Channel) UnmarshalText(text []byte) error {
	parsed, err := ParseChannel(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseChannel converts a channel name ("red", "R", ...) to a Channel.
func ParseChannel(name string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "red", "r":
		return ChannelRed, nil
	case "green", "g":
		return ChannelGreen, nil
	case "blue", "b":
		return ChannelBlue, nil
	default:
		return ChannelRed, fmt.Errorf("unknown channel %q", name)
	}
}

// BitPlane describes one rendered bit-plane artifact.
type BitPlane struct {
	// Name is the display label, e.g. "Red Channel - Bit 0 (LSB)".
	Name string `json:"name"`

	// Channel is the source color channel.
	Channel Channel `json:"channel"`

	// Bit is the bit index, 0 being the least significant.
	Bit int `json:"bit"`

	// Path is the addressable artifact reference.
	Path string `json:"path"`
}

// BitPlaneSet is the all-or-nothing outcome of one decomposition.
type BitPlaneSet struct {
	// Status is StatusSuccess when every plane was written, otherwise StatusError.
	Status Status `json:"status"`

	// Planes lists the artifacts in channel-major, bit-minor order.
	// It is empty whenever Status is not StatusSuccess.
	Planes []BitPlane `json:"planes"`

	// Error is the failure message when Status is StatusError.
	Error string `json:"error,omitempty"`
}

// AIScore is the result returned by the anomaly scorer collaborator.
type AIScore struct {
	// Score is the anomaly score in [0,100].
	Score int `json:"score"`

	// Confidence is a label such as "High" or "Low".
	Confidence string `json:"confidence"`

	// ModelVersion identifies the scoring model.
	ModelVersion string `json:"model_version"`
}

// EvidenceSet aggregates every signal collected for one analysis.
// A nil LSB or AIScore means the signal is unavailable.
type EvidenceSet struct {
	LSB       *LSBStatistic
	AIScore   *AIScore
	Detectors *DetectorResults
	BitPlanes *BitPlaneSet

	// Indicators are derived from detector output and metadata after the
	// other signals are collected.
	Indicators []Indicator
}

// NewEvidenceSet creates an EvidenceSet with an empty detector mapping.
func NewEvidenceSet() *EvidenceSet {
	return &EvidenceSet{Detectors: NewDetectorResults()}
}
