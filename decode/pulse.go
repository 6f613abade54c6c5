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

// ZeroCrossings converts a demodulated signal into signed pulse durations
// in microseconds, one per interval between sign changes. The sign of each
// pulse is the polarity before the crossing that ends it.
//
// A crossing that would end an interval shorter than minPulse samples is
// ignored: the current pulse keeps growing and polarity does not flip. The
// same holds for an interval that rounds to zero microseconds. The final
// interval is kept when it is at least minPulse samples and rounds to
// a non-zero duration.
func ZeroCrossings(signal []float64, sampleRate float64, minPulse int) parse.PulseTrain {
	if len(signal) == 0 {
		return nil
	}

	usPerSample := 1e6 / sampleRate
	duration := func(samples int) int {
		return int(math.RoundToEven(float64(samples) * usPerSample))
	}

	polarity := -1
	if signal[0] > 0 {
		polarity = 1
	}

	var pulses parse.PulseTrain
	last := 0
	for idx := 1; idx < len(signal); idx++ {
		if (signal[idx] > 0) == (signal[idx-1] > 0) {
			continue
		}
		if idx-last < minPulse {
			continue
		}

		// Too short to express in microseconds, carry it into the next pulse.
		us := duration(idx - last)
		if us == 0 {
			continue
		}

		pulses = append(pulses, polarity*us)
		polarity = -polarity
		last = idx
	}

	if tail := len(signal) - last; tail >= minPulse {
		if us := duration(tail); us > 0 {
			pulses = append(pulses, polarity*us)
		}
	}

	return pulses
}

// BitPulses converts bits into fixed-width pulses of 1/baudRate each,
// positive for 1 and negative for 0. Runs of equal bits become a single
// pulse so the result alternates in sign.
func BitPulses(bits parse.Bitstream, baudRate float64) parse.PulseTrain {
	width := int(math.RoundToEven(1e6 / baudRate))

	var pulses parse.PulseTrain
	for idx, bit := range bits {
		sign := -1
		if bit == 1 {
			sign = 1
		}

		if idx > 0 && bit == bits[idx-1] {
			pulses[len(pulses)-1] += sign * width
			continue
		}
		pulses = append(pulses, sign*width)
	}

	return pulses
}
