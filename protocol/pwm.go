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

package protocol

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/bemasher/rtlfob/parse"
)

const (
	// DefaultTEDelta is the tolerance in microseconds when matching pulse
	// lengths.
	DefaultTEDelta = 150
	// PulseBins is the histogram resolution used to find pulse lengths.
	PulseBins = 30
	// MinPulseLength discards glitches when estimating pulse lengths.
	MinPulseLength = 10
)

// ErrNoPulseLengths is returned when a pulse train does not have two
// distinct dominant durations.
var ErrNoPulseLengths = errors.New("no distinct short and long pulse lengths")

// PulseLengths are the short and long element durations of a PWM signal in
// microseconds.
type PulseLengths struct {
	Short, Long float64
}

// EstimatePulseLengths histograms pulse magnitudes and takes the centres
// of the two most populated bins at least teDelta apart.
func EstimatePulseLengths(pulses parse.PulseTrain, teDelta float64) (PulseLengths, error) {
	var durations []float64
	for _, p := range pulses {
		d := math.Abs(float64(p))
		if d > MinPulseLength {
			durations = append(durations, d)
		}
	}
	if len(durations) == 0 {
		return PulseLengths{}, errors.Wrap(ErrNoPulseLengths, "no pulses")
	}
	sort.Float64s(durations)

	lo, hi := durations[0], durations[len(durations)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	dividers := floats.Span(make([]float64, PulseBins+1), lo, hi)
	dividers[PulseBins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, durations, nil)

	bins := make([]int, len(counts))
	for idx := range bins {
		bins[idx] = idx
	}
	sort.SliceStable(bins, func(i, j int) bool {
		return counts[bins[i]] > counts[bins[j]]
	})

	var dominant []float64
	for _, bin := range bins {
		if counts[bin] == 0 {
			break
		}

		// Bin centre from the uncorrected edges.
		centre := lo + (float64(bin)+0.5)*(hi-lo)/PulseBins

		distinct := true
		for _, d := range dominant {
			if math.Abs(centre-d) < teDelta {
				distinct = false
				break
			}
		}
		if distinct {
			dominant = append(dominant, centre)
		}
		if len(dominant) == 2 {
			return PulseLengths{
				Short: math.Min(dominant[0], dominant[1]),
				Long:  math.Max(dominant[0], dominant[1]),
			}, nil
		}
	}

	return PulseLengths{}, errors.Wrapf(ErrNoPulseLengths, "found %d", len(dominant))
}

func matches(duration, reference, tolerance float64) bool {
	return math.Abs(duration-reference) < tolerance
}

// DecodePWM reads the train as consecutive (high, low) pairs. Short-long
// is 0 and long-short is 1. Pairs that are not high then low, or that match
// neither shape within teDelta, are skipped.
func DecodePWM(pulses parse.PulseTrain, lengths PulseLengths, teDelta float64) parse.Bitstream {
	var bits parse.Bitstream
	for idx := 0; idx+1 < len(pulses); idx += 2 {
		high, low := pulses[idx], pulses[idx+1]
		if high <= 0 || low >= 0 {
			continue
		}

		h, l := float64(high), float64(-low)
		switch {
		case matches(h, lengths.Short, teDelta) && matches(l, lengths.Long, teDelta):
			bits = append(bits, 0)
		case matches(h, lengths.Long, teDelta) && matches(l, lengths.Short, teDelta):
			bits = append(bits, 1)
		}
	}
	return bits
}
