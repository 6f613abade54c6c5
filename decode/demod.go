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

import "math/cmplx"

// Demodulated holds instantaneous frequency in radians per sample.
type Demodulated struct {
	Signal     []float64
	SampleRate float64
	Filtered   bool
}

// Discriminate computes the phase difference between adjacent samples. The
// result is one sample shorter than input.
func Discriminate(input []complex128) []float64 {
	if len(input) < 2 {
		return nil
	}

	output := make([]float64, len(input)-1)
	for idx := range output {
		output[idx] = cmplx.Phase(input[idx+1] * cmplx.Conj(input[idx]))
	}

	return output
}

// Demodulate discriminates b and low-pass filters the result with the
// decoder's zero-phase Butterworth filter.
func (d *Decoder) Demodulate(b Baseband) Demodulated {
	raw := Discriminate(b.Samples)

	return Demodulated{
		Signal:     d.lowpass.FiltFilt(raw),
		SampleRate: b.SampleRate,
		Filtered:   !d.lowpass.Bypass,
	}
}
