// RTLFOB - An rtl-sdr key fob signal recovery and replay tool for the ISM bands.
// Copyright (C) 2015 Douglas Hall
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package decode

import (
	"math"

	"github.com/bemasher/rtlfob/parse"
)

const (
	// ClockRecoveryGain is the proportional gain applied to the timing
	// error on each symbol.
	ClockRecoveryGain = 0.1
	// MaxClockError bounds the timing error estimate.
	MaxClockError = 5.0
	// HistoryDepth is the number of window extremes kept for slope
	// normalization.
	HistoryDepth = 32
)

// A Sampler recovers symbol timing from a demodulated signal with a
// proportional feedback loop. Each decision instant is nudged by the local
// signal slope, normalized by the recent signal swing.
//
// A Sampler carries per-run state and must not be shared between
// goroutines.
type Sampler struct {
	SamplesPerSymbol float64

	// Phase is the index of the first decision. Defaults to one symbol.
	Phase float64

	Gain float64

	dx         float64
	minHist    *Ring
	maxHist    *Ring
	clockError float64
	instants   []int
}

func NewSampler(sampleRate, symbolRate float64) *Sampler {
	sps := sampleRate / symbolRate
	return &Sampler{
		SamplesPerSymbol: sps,
		Phase:            sps,
		Gain:             ClockRecoveryGain,
		dx:               2 * symbolRate / sampleRate,
		minHist:          NewRing(HistoryDepth),
		maxHist:          NewRing(HistoryDepth),
	}
}

// Sample makes one bit decision per symbol until the signal is exhausted.
func (s *Sampler) Sample(signal []float64) (bits parse.Bitstream) {
	s.instants = s.instants[:0]
	s.clockError = 0
	s.minHist = NewRing(HistoryDepth)
	s.maxHist = NewRing(HistoryDepth)

	pointer := s.Phase - s.SamplesPerSymbol
	for {
		step := s.SamplesPerSymbol - s.Gain*s.clockError
		if step <= 0 {
			step = s.SamplesPerSymbol
		}
		pointer += step

		idx := int(math.RoundToEven(pointer))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(signal)-1 {
			return bits
		}

		var bit byte
		if signal[idx] > 0 {
			bit = 1
		}
		bits = append(bits, bit)
		s.instants = append(s.instants, idx)

		s.update(signal, idx)
	}
}

// update re-estimates the clock error around idx.
func (s *Sampler) update(signal []float64, idx int) {
	lo := idx - 1
	if lo < 0 {
		lo = 0
	}
	hi := idx + 2
	if hi > len(signal) {
		hi = len(signal)
	}

	var window [3]float64
	copy(window[:], signal[lo:hi])

	s.minHist.Push(math.Min(window[0], math.Min(window[1], window[2])))
	s.maxHist.Push(math.Max(window[0], math.Max(window[1], window[2])))

	yScale := (s.maxHist.Max() - s.minHist.Min()) / 2
	if yScale == 0 {
		s.clockError = 0
		return
	}

	e := (window[2] - window[0]) / yScale / s.dx
	s.clockError = math.Max(-MaxClockError, math.Min(MaxClockError, e))
}

// ClockError returns the most recent timing error estimate.
func (s *Sampler) ClockError() float64 {
	return s.clockError
}

// Instants returns the sample index of each decision from the last call to
// Sample.
func (s *Sampler) Instants() []int {
	return s.instants
}

// LeadingEdgePhase returns the decision phase that centres decisions on
// symbols starting lead samples into a signal, compensating for the half
// sample lost to discrimination.
func LeadingEdgePhase(lead, samplesPerSymbol float64) float64 {
	phase := math.Mod(lead+samplesPerSymbol/2-0.5, samplesPerSymbol)
	if phase < 0 {
		phase += samplesPerSymbol
	}
	return phase
}
