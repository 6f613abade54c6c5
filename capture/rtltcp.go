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

package capture

import (
	"io"
	"net"
	"time"

	"github.com/bemasher/rtltcp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// BlockSize is the number of bytes requested from rtl_tcp per read.
const BlockSize = 16384

// DefaultReadTimeout bounds each block read so a stalled server fails the
// recording instead of hanging it.
const DefaultReadTimeout = 5 * time.Second

// A Receiver records unsigned 8-bit I/Q samples from an rtl_tcp server.
type Receiver struct {
	rtltcp.SDR

	SampleRate  float64
	ReadTimeout time.Duration

	lut sampleLUT
	log logrus.FieldLogger
}

// Dial connects to the rtl_tcp server at addr and tunes it. Gain is left
// to the tuner's automatic mode.
func Dial(addr string, centerFreq, sampleRate uint32, log logrus.FieldLogger) (*Receiver, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "resolving rtl_tcp address")
	}

	r := &Receiver{
		SampleRate:  float64(sampleRate),
		ReadTimeout: DefaultReadTimeout,
		lut:         newSampleLUT(),
		log:         log,
	}

	if err := r.Connect(tcpAddr); err != nil {
		return nil, errors.Wrap(err, "connecting to rtl_tcp")
	}

	log.WithFields(logrus.Fields{
		"tuner":     r.Info.Tuner,
		"gaincount": r.Info.GainCount,
	}).Info("connected to rtl_tcp")

	if err := r.SetCenterFreq(centerFreq); err != nil {
		r.Close()
		return nil, errors.Wrap(err, "setting center frequency")
	}
	if err := r.SetSampleRate(sampleRate); err != nil {
		r.Close()
		return nil, errors.Wrap(err, "setting sample rate")
	}
	if err := r.SetGainMode(true); err != nil {
		r.Close()
		return nil, errors.Wrap(err, "setting gain mode")
	}

	return r, nil
}

// Record reads n complex samples into a new Capture.
func (r *Receiver) Record(n int) (Capture, error) {
	raw := make([]byte, n<<1)

	for offset := 0; offset < len(raw); {
		end := offset + BlockSize
		if end > len(raw) {
			end = len(raw)
		}

		if r.ReadTimeout > 0 {
			if err := r.SetReadDeadline(time.Now().Add(r.ReadTimeout)); err != nil {
				return Capture{}, errors.Wrap(err, "setting read deadline")
			}
		}

		read, err := io.ReadFull(r, raw[offset:end])
		offset += read

		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				r.log.WithField("timeout", r.ReadTimeout).Warn("rtl_tcp stopped sending samples")
			}
			return Capture{}, errors.Wrapf(err, "recording after %d bytes", offset)
		}
	}

	samples := make([]complex128, n)
	for idx := range samples {
		samples[idx] = complex(r.lut[raw[idx<<1]], r.lut[raw[idx<<1+1]])
	}

	r.log.WithField("samples", n).Debug("recorded capture")

	return Capture{Samples: samples, SampleRate: r.SampleRate}, nil
}

// Maps unsigned 8-bit samples to [-1, 1] around rtl-sdr's usual DC offset.
type sampleLUT [0x100]float64

func newSampleLUT() (lut sampleLUT) {
	for idx := range lut {
		lut[idx] = (float64(idx) - 127.5) / 127.5
	}
	return
}
