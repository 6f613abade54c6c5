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

// Package decode recovers bits and pulse timings from a burst of complex
// samples: baseband conversion, FSK discrimination, low-pass filtering,
// symbol timing recovery and pulse extraction.
package decode

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/bemasher/rtlfob/parse"
)

const (
	// FilterOrder is the order of the post-discriminator low-pass.
	FilterOrder = 5
	// CutoffRatio places the low-pass cutoff relative to the baud rate.
	CutoffRatio = 0.5
)

// Config specifies the radio parameters of a capture.
type Config struct {
	SampleRate float64 `yaml:"samplerate"`
	BaudRate   float64 `yaml:"baudrate"`
	FreqOffset float64 `yaml:"freqoffset"`

	// MinPulse is the shortest interval in decimated samples kept by zero
	// crossing extraction. Zero selects half a symbol.
	MinPulse int `yaml:"minpulse"`
}

// Decoder holds the filters derived from a Config. It is safe for
// concurrent use once created.
type Decoder struct {
	Cfg Config

	decimator Decimator
	lowpass   Butterworth
	warnings  []string

	log logrus.FieldLogger
}

// NewDecoder designs the decimation and low-pass filters for cfg. Degraded
// configurations are not errors; they are logged and reported by Warnings.
func NewDecoder(cfg Config, log logrus.FieldLogger) (*Decoder, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.SampleRate <= 0 {
		return nil, errors.Errorf("invalid sample rate: %g", cfg.SampleRate)
	}
	if cfg.BaudRate <= 0 {
		return nil, errors.Errorf("invalid baud rate: %g", cfg.BaudRate)
	}

	d := &Decoder{Cfg: cfg, log: log}

	d.decimator = NewDecimator(DecimationFactor(cfg.SampleRate, cfg.BaudRate))
	if d.decimator.Factor == 1 && cfg.SampleRate < OversampleFactor*cfg.BaudRate {
		d.warn("decimation disabled: baud rate exceeds a tenth of the sample rate")
	}

	var err error
	d.lowpass, err = NewButterworth(FilterOrder, CutoffRatio*cfg.BaudRate, d.SampleRate())
	if err != nil {
		return nil, errors.Wrap(err, "designing low-pass filter")
	}
	if d.lowpass.Bypass {
		d.warn("low-pass filter bypassed: cutoff at or above nyquist")
	}

	if d.Cfg.MinPulse <= 0 {
		d.Cfg.MinPulse = int(d.SamplesPerSymbol() / 2)
	}

	return d, nil
}

func (d *Decoder) warn(msg string) {
	d.warnings = append(d.warnings, msg)
	d.log.WithFields(logrus.Fields{
		"rate": d.Cfg.SampleRate,
		"baud": d.Cfg.BaudRate,
	}).Warn(msg)
}

// Warnings lists degraded conditions found while designing the filters.
func (d *Decoder) Warnings() []string {
	return d.warnings
}

// Decimation returns the integer decimation factor.
func (d *Decoder) Decimation() int {
	return d.decimator.Factor
}

// SampleRate returns the rate after decimation.
func (d *Decoder) SampleRate() float64 {
	return d.Cfg.SampleRate / float64(d.decimator.Factor)
}

// SamplesPerSymbol returns the symbol length after decimation.
func (d *Decoder) SamplesPerSymbol() float64 {
	return d.SampleRate() / d.Cfg.BaudRate
}

func (d *Decoder) Log() {
	d.log.WithFields(logrus.Fields{
		"samplerate":       d.Cfg.SampleRate,
		"baudrate":         d.Cfg.BaudRate,
		"freqoffset":       d.Cfg.FreqOffset,
		"decimation":       d.decimator.Factor,
		"taps":             len(d.decimator.Taps),
		"samplesPerSymbol": d.SamplesPerSymbol(),
		"minPulse":         d.Cfg.MinPulse,
	}).Info("decoder")
}

// Result is everything recovered from one burst.
type Result struct {
	Demodulated Demodulated
	Decimation  int

	Bits      parse.Bitstream
	Crossings parse.PulseTrain

	Instants   []int
	ClockError float64
}

// Decode runs a burst through baseband conversion, demodulation, symbol
// sampling and zero crossing extraction. lead is the number of raw samples
// preceding the burst's leading edge; it aligns the first decisions with
// symbol centres. A negative lead keeps the sampler's default phase.
func (d *Decoder) Decode(samples []complex128, lead int) Result {
	bb := d.Baseband(samples)
	demod := d.Demodulate(bb)

	sampler := NewSampler(demod.SampleRate, d.Cfg.BaudRate)
	if lead >= 0 {
		sampler.Phase = LeadingEdgePhase(float64(lead)/float64(bb.Decimation), sampler.SamplesPerSymbol)
	}

	bits := sampler.Sample(demod.Signal)

	r := Result{
		Demodulated: demod,
		Decimation:  bb.Decimation,
		Bits:        bits,
		Crossings:   ZeroCrossings(demod.Signal, demod.SampleRate, d.Cfg.MinPulse),
		Instants:    append([]int(nil), sampler.Instants()...),
		ClockError:  sampler.ClockError(),
	}

	d.log.WithFields(logrus.Fields{
		"samples":    len(samples),
		"bits":       len(bits),
		"pulses":     len(r.Crossings),
		"clockError": math.Round(r.ClockError*1e3) / 1e3,
	}).Debug("decoded burst")

	return r
}
