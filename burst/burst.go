// Package burst finds transmissions in a capture by thresholding the
// sample envelope against an estimated noise floor.
package burst

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultThreshold = 5.0
	DefaultMinLength = 1000
	DefaultBins      = 100
)

// A Burst is the half-open sample interval [Start, End).
type Burst struct {
	Start int
	End   int
}

func (b Burst) Len() int {
	return b.End - b.Start
}

// Guarded widens b by guard samples on each side, clamped to [0, n).
func (b Burst) Guarded(guard, n int) Burst {
	g := Burst{Start: b.Start - guard, End: b.End + guard}
	if g.Start < 0 {
		g.Start = 0
	}
	if g.End > n {
		g.End = n
	}
	return g
}

// A Segmenter splits an envelope into bursts. Zero fields take their
// defaults.
type Segmenter struct {
	// Threshold is the burst to noise floor ratio.
	Threshold float64 `yaml:"threshold"`
	// MinLength is the length a burst must exceed to be kept.
	MinLength int `yaml:"minlength"`
	// Bins is the envelope histogram resolution.
	Bins int `yaml:"bins"`
}

func (s Segmenter) withDefaults() Segmenter {
	if s.Threshold <= 0 {
		s.Threshold = DefaultThreshold
	}
	if s.MinLength <= 0 {
		s.MinLength = DefaultMinLength
	}
	if s.Bins <= 0 {
		s.Bins = DefaultBins
	}
	return s
}

// NoiseFloor returns the left edge of the most populated bin of the
// envelope's histogram. Ties go to the lowest bin.
func (s Segmenter) NoiseFloor(envelope []float64) float64 {
	s = s.withDefaults()

	if len(envelope) == 0 {
		return 0
	}

	sorted := make([]float64, len(envelope))
	copy(sorted, envelope)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return lo
	}

	dividers := floats.Span(make([]float64, s.Bins+1), lo, hi)
	// The top bin is closed so the maximum is counted.
	dividers[s.Bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)
	return dividers[floats.MaxIdx(counts)]
}

// Segment scans the envelope once. A burst opens on the first sample above
// the threshold and closes on the next sample below it. A burst still open
// at the end closes there. Bursts no longer than MinLength are discarded.
func (s Segmenter) Segment(envelope []float64) (bursts []Burst, threshold float64) {
	s = s.withDefaults()

	threshold = s.NoiseFloor(envelope) * s.Threshold

	open := false
	start := 0
	for idx, v := range envelope {
		switch {
		case !open && v > threshold:
			open, start = true, idx
		case open && v < threshold:
			open = false
			if idx-start > s.MinLength {
				bursts = append(bursts, Burst{start, idx})
			}
		}
	}

	if open && len(envelope)-start > s.MinLength {
		bursts = append(bursts, Burst{start, len(envelope)})
	}

	return bursts, threshold
}
