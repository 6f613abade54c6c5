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

// Package capture loads complex baseband recordings from WAV files or a
// live rtl_tcp server.
package capture

import (
	"math/cmplx"
	"time"
)

// A Capture is a complete buffer of complex samples. It is not modified
// once loaded.
type Capture struct {
	Samples    []complex128
	SampleRate float64
}

// Len returns the number of complex samples.
func (c Capture) Len() int {
	return len(c.Samples)
}

// Duration returns the length of the capture in time.
func (c Capture) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / c.SampleRate * float64(time.Second))
}

// Envelope computes the instantaneous magnitude of each sample.
func (c Capture) Envelope() []float64 {
	env := make([]float64, len(c.Samples))
	for idx, s := range c.Samples {
		env[idx] = cmplx.Abs(s)
	}
	return env
}

// Slice returns the samples in [start, end) clamped to the capture. The
// returned capture shares storage with c.
func (c Capture) Slice(start, end int) Capture {
	if start < 0 {
		start = 0
	}
	if end > len(c.Samples) {
		end = len(c.Samples)
	}
	if start > end {
		start = end
	}
	return Capture{Samples: c.Samples[start:end], SampleRate: c.SampleRate}
}
