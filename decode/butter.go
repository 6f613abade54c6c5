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

	"github.com/pkg/errors"
)

// A Section is one second-order IIR stage in transposed direct form II. A
// first-order stage leaves B2 and A2 zero. A0 is normalized to 1.
type Section struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Gain returns the section's response at DC.
func (s Section) Gain() float64 {
	return (s.B0 + s.B1 + s.B2) / (1 + s.A1 + s.A2)
}

// Filter runs the section over x in place starting from state z1, z2.
func (s Section) Filter(x []float64, z1, z2 float64) {
	for idx, v := range x {
		y := s.B0*v + z1
		z1 = s.B1*v - s.A1*y + z2
		z2 = s.B2*v - s.A2*y
		x[idx] = y
	}
}

// steadyState returns the section state after an infinitely long input of
// constant value v.
func (s Section) steadyState(v float64) (z1, z2 float64) {
	y := s.Gain() * v
	z2 = s.B2*v - s.A2*y
	z1 = s.B1*v - s.A1*y + z2
	return
}

// A Butterworth low-pass filter as a cascade of second-order sections. A
// bypassed filter is the identity.
type Butterworth struct {
	Order    int
	Sections []Section
	Bypass   bool
}

// NewButterworth designs an order-N low-pass with the bilinear transform,
// pre-warping so the -3 dB point lands on cutoff. A cutoff at or above
// Nyquist yields a bypassed filter.
func NewButterworth(order int, cutoff, sampleRate float64) (Butterworth, error) {
	if order < 1 {
		return Butterworth{}, errors.Errorf("invalid filter order: %d", order)
	}
	if cutoff <= 0 || sampleRate <= 0 {
		return Butterworth{}, errors.Errorf("invalid cutoff %g for sample rate %g", cutoff, sampleRate)
	}

	bw := Butterworth{Order: order}
	if cutoff >= sampleRate/2 {
		bw.Bypass = true
		return bw, nil
	}

	k := math.Tan(math.Pi * cutoff / sampleRate)
	kk := k * k

	// Conjugate pole pairs of the analog prototype: s^2 + a*s + 1.
	for p := 1; p <= order/2; p++ {
		a := 2 * math.Sin(float64(2*p-1)*math.Pi/float64(2*order))
		norm := 1 / (1 + a*k + kk)

		b0 := kk * norm
		bw.Sections = append(bw.Sections, Section{
			B0: b0,
			B1: 2 * b0,
			B2: b0,
			A1: 2 * (kk - 1) * norm,
			A2: (1 - a*k + kk) * norm,
		})
	}

	// Real pole: s + 1.
	if order%2 == 1 {
		norm := 1 / (1 + k)
		bw.Sections = append(bw.Sections, Section{
			B0: k * norm,
			B1: k * norm,
			A1: (k - 1) * norm,
		})
	}

	return bw, nil
}

// PadLength is the number of samples of odd extension added to each end
// before forward-backward filtering.
func (bw Butterworth) PadLength() int {
	return 3 * (bw.Order + 1)
}

// Filter runs the cascade forward over x in place. Each section starts in
// the steady state for a constant input equal to x[0].
func (bw Butterworth) Filter(x []float64) {
	if bw.Bypass || len(x) == 0 {
		return
	}

	v := x[0]
	for _, s := range bw.Sections {
		z1, z2 := s.steadyState(v)
		s.Filter(x, z1, z2)
		v *= s.Gain()
	}
}

// FiltFilt applies the filter forward then backward for zero phase
// distortion. The input is extended at both ends by odd reflection to
// reduce edge transients. Returns a new slice the length of x.
func (bw Butterworth) FiltFilt(x []float64) []float64 {
	output := make([]float64, len(x))
	if bw.Bypass || len(x) == 0 {
		copy(output, x)
		return output
	}

	n := len(x)
	pad := bw.PadLength()
	if pad > n-1 {
		pad = n - 1
	}

	ext := make([]float64, n+2*pad)
	for idx := 0; idx < pad; idx++ {
		ext[idx] = 2*x[0] - x[pad-idx]
		ext[pad+n+idx] = 2*x[n-1] - x[n-2-idx]
	}
	copy(ext[pad:], x)

	bw.Filter(ext)
	reverse(ext)
	bw.Filter(ext)
	reverse(ext)

	copy(output, ext[pad:pad+n])
	return output
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
