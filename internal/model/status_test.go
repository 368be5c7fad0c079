package model

import (
	"encoding/json"
	"testing"
)

// TestStatusString tests the String method of Status.
func TestStatusString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status   Status
		expected string
	}{
		{StatusSuccess, "Success"},
		{StatusWarning, "Warning"},
		{StatusNotInstalled, "Not Installed"},
		{StatusTimeout, "Timeout"},
		{StatusError, "Error"},
		{Status(999), "Unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.status.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.status.String(), tc.expected)
			}
		})
	}
}

// TestStatusRan tests that only completed invocations count as having run.
func TestStatusRan(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status   Status
		expected bool
	}{
		{StatusSuccess, true},
		{StatusWarning, true},
		{StatusNotInstalled, false},
		{StatusTimeout, false},
		{StatusError, false},
	}

	for _, tc := range testCases {
		t.Run(tc.status.String(), func(t *testing.T) {
			t.Parallel()
			if got := tc.status.Ran(); got != tc.expected {
				t.Errorf("Ran() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

// TestParseStatus tests status name parsing and its aliases.
func TestParseStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected Status
		wantErr  bool
	}{
		{"Success", StatusSuccess, false},
		{"warning", StatusWarning, false},
		{"Not Installed", StatusNotInstalled, false},
		{"not_installed", StatusNotInstalled, false},
		{"notinstalled", StatusNotInstalled, false},
		{" TIMEOUT ", StatusTimeout, false},
		{"error", StatusError, false},
		{"exploded", StatusError, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseStatus(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("got %v, expected %v", got, tc.expected)
			}
		})
	}
}

// TestStatusJSON tests that statuses serialize to their display names.
func TestStatusJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(DetectorResult{Status: StatusNotInstalled})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["status"] != "Not Installed" {
		t.Errorf("got status %v, expected %q", decoded["status"], "Not Installed")
	}

	if _, err := json.Marshal(DetectorResult{Status: Status(42)}); err == nil {
		t.Error("expected error for unknown status")
	}
}
