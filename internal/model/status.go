package model

import (
	"fmt"
	"strings"
)

// Status is the outcome of one detector invocation.
type Status int

const (
	// StatusSuccess means the detector completed and exited cleanly.
	StatusSuccess Status = iota
	// StatusWarning means the detector completed with a non-zero exit.
	// The tool ran, and its output is still parsed as evidence.
	StatusWarning
	// StatusNotInstalled means the detector is absent from the environment.
	StatusNotInstalled
	// StatusTimeout means the detector exceeded its per-call deadline.
	StatusTimeout
	// StatusError means the detector failed for any other reason.
	StatusError
)

// statusNames holds the wire form of each status.
var statusNames = map[Status]string{
	StatusSuccess:      "Success",
	StatusWarning:      "Warning",
	StatusNotInstalled: "Not Installed",
	StatusTimeout:      "Timeout",
	StatusError:        "Error",
}

// String returns the human-readable representation of the status.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Ran reports whether the detector actually executed to completion.
// Only statuses that ran may contribute evidence to a verdict.
func (s Status) Ran() bool {
	return s == StatusSuccess || s == StatusWarning
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown detector status %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus converts a status name to a Status.
// Matching is case-insensitive and accepts "not_installed" and
// "notinstalled" as aliases, which is what config files tend to contain.
func ParseStatus(name string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)
	if normalized == "notinstalled" {
		normalized = "not installed"
	}
	for status, statusName := range statusNames {
		if strings.ToLower(statusName) == normalized {
			return status, nil
		}
	}
	return StatusError, fmt.Errorf("unknown detector status %q", name)
}
