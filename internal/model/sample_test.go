package model

import (
	"errors"
	"testing"
)

// TestNewImageSample tests sample construction and validation.
func TestNewImageSample(t *testing.T) {
	t.Parallel()

	t.Run("rejects mismatched pixel data", func(t *testing.T) {
		t.Parallel()
		_, err := NewImageSample("x", 2, 2, []uint8{1, 2, 3})
		if !errors.Is(err, ErrDecode) {
			t.Errorf("expected ErrDecode, got %v", err)
		}
	})

	t.Run("rejects empty dimensions", func(t *testing.T) {
		t.Parallel()
		_, err := NewImageSample("x", 0, 2, nil)
		if !errors.Is(err, ErrDecode) {
			t.Errorf("expected ErrDecode, got %v", err)
		}
	})

	t.Run("copies pixel data", func(t *testing.T) {
		t.Parallel()
		pix := []uint8{10, 20, 30}
		s, err := NewImageSample("x", 1, 1, pix)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		pix[0] = 99
		if s.At(0, 0, ChannelRed) != 10 {
			t.Error("sample must not alias caller pixel data")
		}
	})

	t.Run("addresses channels", func(t *testing.T) {
		t.Parallel()
		s, err := NewImageSample("x", 2, 1, []uint8{1, 2, 3, 4, 5, 6})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.At(1, 0, ChannelGreen) != 5 {
			t.Errorf("got %d, expected 5", s.At(1, 0, ChannelGreen))
		}
		if s.Components() != 6 {
			t.Errorf("got %d components, expected 6", s.Components())
		}
		sum := 0
		s.EachComponent(func(v uint8) { sum += int(v) })
		if sum != 21 {
			t.Errorf("got sum %d, expected 21", sum)
		}
	})
}

// TestParseChannel tests channel name parsing.
func TestParseChannel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected Channel
		wantErr  bool
	}{
		{"Red", ChannelRed, false},
		{"g", ChannelGreen, false},
		{"BLUE", ChannelBlue, false},
		{"alpha", ChannelRed, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseChannel(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.expected {
				t.Errorf("got %v, expected %v", got, tc.expected)
			}
		})
	}
}
