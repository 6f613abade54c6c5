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

import "math"

// Baseband is a decimated complex signal.
type Baseband struct {
	Samples    []complex128
	SampleRate float64
	Decimation int
}

// Mix shifts input down by offset Hz. The result is a new slice.
func Mix(input []complex128, offset, sampleRate float64) []complex128 {
	output := make([]complex128, len(input))

	if offset == 0 {
		copy(output, input)
		return output
	}

	step := -2 * math.Pi * offset / sampleRate
	for idx, v := range input {
		s, c := math.Sincos(step * float64(idx))
		output[idx] = v * complex(c, s)
	}

	return output
}

// Baseband cancels the configured frequency offset and decimates samples
// to the decoder's working rate.
func (d *Decoder) Baseband(samples []complex128) Baseband {
	mixed := samples
	if d.Cfg.FreqOffset != 0 {
		mixed = Mix(samples, d.Cfg.FreqOffset, d.Cfg.SampleRate)
	}

	return Baseband{
		Samples:    d.decimator.Execute(mixed),
		SampleRate: d.Cfg.SampleRate / float64(d.decimator.Factor),
		Decimation: d.decimator.Factor,
	}
}
