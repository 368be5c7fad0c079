// Package lsb implements the least-significant-bit statistical test.
//
// The test computes the mean of (component & 1) over every RGB component of
// a sample. A mean close to 0.5 means the low bits are nearly uniformly
// distributed, which is what LSB embedding of random or encrypted data
// produces; natural image noise tends to bias away from it. The result is a
// heuristic and never proof of an embedded payload.
package lsb

import "github.com/nao1215/stegscan/internal/model"

// Bounds of the open interval in which the LSB mean is considered suspicious.
const (
	LowerBound = 0.45
	UpperBound = 0.55
)

// Mean returns the mean least-significant bit over every RGB component.
// An empty sample yields 0.
func Mean(s *model.ImageSample) float64 {
	if s == nil || s.Components() == 0 {
		return 0
	}
	ones := 0
	s.EachComponent(func(v uint8) {
		ones += int(v & 1)
	})
	return float64(ones) / float64(s.Components())
}

// Classify maps an LSB mean to a suspicion level.
// It returns Medium if and only if LowerBound < mean < UpperBound.
func Classify(mean float64) model.SuspicionLevel {
	if mean > LowerBound && mean < UpperBound {
		return model.SuspicionMedium
	}
	return model.SuspicionLow
}

// Analyze runs the full LSB test on a sample.
func Analyze(s *model.ImageSample) model.LSBStatistic {
	mean := Mean(s)
	return model.LSBStatistic{
		MeanValue: mean,
		Level:     Classify(mean),
	}
}
