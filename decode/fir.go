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

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
)

// Samples per symbol targeted after decimation.
const OversampleFactor = 10

// TapsPerFactor sets the anti-alias filter length, 20 taps per unit of
// decimation plus one.
const TapsPerFactor = 20

// DecimationFactor returns the integer factor that brings sampleRate down to
// roughly OversampleFactor samples per symbol. It never returns less than 1.
func DecimationFactor(sampleRate, baudRate float64) int {
	q := int(sampleRate / (OversampleFactor * baudRate))
	if q < 1 {
		return 1
	}
	return q
}

// A Decimator low-pass filters and downsamples complex samples with a
// linear-phase FIR whose group delay is removed, so output sample m is
// centred on input sample m*Factor.
type Decimator struct {
	Factor int
	Taps   []float64
}

// NewDecimator designs a Hamming windowed-sinc filter with cutoff at 1/q of
// Nyquist, normalized to unity gain at DC.
func NewDecimator(q int) Decimator {
	if q <= 1 {
		return Decimator{Factor: 1}
	}

	n := TapsPerFactor*q + 1
	taps := window.Hamming(n)

	cutoff := 1 / float64(q)
	half := n >> 1
	for k := range taps {
		taps[k] *= cutoff * sinc(cutoff*float64(k-half))
	}
	floats.Scale(1/floats.Sum(taps), taps)

	return Decimator{Factor: q, Taps: taps}
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	x *= math.Pi
	return math.Sin(x) / x
}

// Execute filters and downsamples input. The output has ceil(len(input) /
// Factor) samples. Input beyond either edge is treated as zero.
func (dec Decimator) Execute(input []complex128) []complex128 {
	if dec.Factor <= 1 {
		output := make([]complex128, len(input))
		copy(output, input)
		return output
	}

	q := dec.Factor
	half := len(dec.Taps) >> 1
	output := make([]complex128, (len(input)+q-1)/q)

	for m := range output {
		center := m*q + half

		lo := center - len(input) + 1
		if lo < 0 {
			lo = 0
		}
		hi := center
		if hi > len(dec.Taps)-1 {
			hi = len(dec.Taps) - 1
		}

		var re, im float64
		for k := lo; k <= hi; k++ {
			v := input[center-k]
			re += dec.Taps[k] * real(v)
			im += dec.Taps[k] * imag(v)
		}
		output[m] = complex(re, im)
	}

	return output
}
