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


package main

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/bemasher/rtlfob/csv"
	"github.com/bemasher/rtlfob/pipeline"
)

// Flags holds the command line. Pipeline settings are only applied when
// given explicitly, so they override the config file rather than reset it.
type Flags struct {
	Config  string
	Layouts string

	Input  string
	Output string

	Server     string
	CenterFreq uint32
	Duration   time.Duration

	Format  string
	Verbose bool
	Version bool

	SampleRate float64
	BaudRate   float64
	FreqOffset float64
	MinPulse   int

	Threshold float64
	MinLength int
	Guard     int

	Mode      string
	Frequency uint32
	Preset    string

	Preamble   string
	Width      int
	Manchester bool
	Source     string
	TEDelta    float64
	Layout     string

	Workers int
}

func (f *Flags) Register(fs *flag.FlagSet) {
	defaults := pipeline.DefaultConfig()

	fs.StringVar(&f.Config, "config", "", "yaml configuration file")
	fs.StringVar(&f.Layouts, "layouts", "", "yaml file of additional field layouts")

	fs.StringVarP(&f.Input, "input", "i", "", "two channel I/Q wav capture, empty to record from rtl_tcp")
	fs.StringVarP(&f.Output, "output", "o", "fob.sub", "replay file to write")

	fs.StringVar(&f.Server, "server", "127.0.0.1:1234", "address or hostname of rtl_tcp instance")
	fs.Uint32Var(&f.CenterFreq, "centerfreq", 0, "center frequency to record on, 0 for the replay frequency")
	fs.DurationVar(&f.Duration, "duration", 5*time.Second, "time to record from rtl_tcp, ex. 1m30s")

	fs.StringVar(&f.Format, "format", "plain", "report output format: plain, csv, json, or xml")
	fs.BoolVarP(&f.Verbose, "verbose", "v", false, "log per-press decoding details")
	fs.BoolVar(&f.Version, "version", false, "display build date and commit hash")

	fs.Float64Var(&f.SampleRate, "samplerate", defaults.Decode.SampleRate, "sample rate of the capture in Hz")
	fs.Float64Var(&f.BaudRate, "baudrate", defaults.Decode.BaudRate, "symbol rate in baud")
	fs.Float64Var(&f.FreqOffset, "freqoffset", 0, "signal offset from the capture's center frequency in Hz")
	fs.IntVar(&f.MinPulse, "minpulse", 0, "shortest zero crossing interval in decimated samples, 0 for half a symbol")

	fs.Float64Var(&f.Threshold, "threshold", defaults.Burst.Threshold, "burst to noise floor ratio")
	fs.IntVar(&f.MinLength, "minlength", 0, "samples a burst must exceed, 0 to derive from the payload width")
	fs.IntVar(&f.Guard, "guard", 0, "samples kept either side of a burst, 0 for 10ms")

	fs.StringVar(&f.Mode, "mode", string(defaults.Mode), "replay pulse source: bits or zerocrossing")
	fs.Uint32Var(&f.Frequency, "frequency", defaults.Frequency, "replay file frequency in Hz")
	fs.StringVar(&f.Preset, "preset", defaults.Preset, "replay file modulation preset")

	fs.StringVar(&f.Preamble, "preamble", "", "preamble preceding each payload, empty to use the whole bitstream")
	fs.IntVar(&f.Width, "width", defaults.Payload.Width, "payload width in bits")
	fs.BoolVar(&f.Manchester, "manchester", false, "attempt manchester decoding of payloads")
	fs.StringVar(&f.Source, "source", string(defaults.Payload.Source), "payload bit source: sampled or pwm")
	fs.Float64Var(&f.TEDelta, "tedelta", defaults.Payload.TEDelta, "pwm pulse length tolerance in microseconds")
	fs.StringVar(&f.Layout, "layout", "", "field layout to apply, empty to select by payload width")

	fs.IntVar(&f.Workers, "workers", defaults.Workers, "bursts decoded concurrently")
}

// EnvOverride sets any flag that has a matching RTLFOB_ environment
// variable. Command line arguments parsed afterwards take precedence.
func EnvOverride(fs *flag.FlagSet, log logrus.FieldLogger) {
	fs.VisitAll(func(f *flag.Flag) {
		envName := "RTLFOB_" + strings.ToUpper(f.Name)
		flagValue := os.Getenv(envName)
		if flagValue == "" {
			return
		}

		entry := log.WithFields(logrus.Fields{
			"env":   envName,
			"flag":  f.Name,
			"value": flagValue,
		})
		if err := fs.Set(f.Name, flagValue); err != nil {
			entry.WithError(err).Warn("environment variable failed to override flag")
			return
		}
		entry.Info("environment variable overrides flag")
	})
}

// Apply copies explicitly set flags into cfg.
func (f *Flags) Apply(fs *flag.FlagSet, cfg *pipeline.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "samplerate":
			cfg.Decode.SampleRate = f.SampleRate
		case "baudrate":
			cfg.Decode.BaudRate = f.BaudRate
		case "freqoffset":
			cfg.Decode.FreqOffset = f.FreqOffset
		case "minpulse":
			cfg.Decode.MinPulse = f.MinPulse
		case "threshold":
			cfg.Burst.Threshold = f.Threshold
		case "minlength":
			cfg.Burst.MinLength = f.MinLength
		case "guard":
			cfg.Guard = f.Guard
		case "mode":
			cfg.Mode = pipeline.Mode(strings.ToLower(f.Mode))
		case "frequency":
			cfg.Frequency = f.Frequency
		case "preset":
			cfg.Preset = f.Preset
		case "preamble":
			cfg.Payload.Preamble = f.Preamble
		case "width":
			cfg.Payload.Width = f.Width
		case "manchester":
			cfg.Payload.Manchester = f.Manchester
		case "source":
			cfg.Payload.Source = pipeline.Source(strings.ToLower(f.Source))
		case "tedelta":
			cfg.Payload.TEDelta = f.TEDelta
		case "layout":
			cfg.Payload.Layout = f.Layout
		case "workers":
			cfg.Workers = f.Workers
		}
	})
}

// JSON, XML and CSV all implement this interface so we can simplify report
// output formatting.
type Encoder interface {
	Encode(interface{}) error
}

func NewEncoder(format string, w io.Writer) (Encoder, error) {
	switch strings.ToLower(format) {
	case "plain":
		return PlainEncoder{w}, nil
	case "csv":
		return csv.NewEncoder(w), nil
	case "json":
		return json.NewEncoder(w), nil
	case "xml":
		return xml.NewEncoder(w), nil
	}
	return nil, errors.Errorf("invalid format: %q", format)
}

type PlainEncoder struct {
	w io.Writer
}

func (pe PlainEncoder) Encode(v interface{}) (err error) {
	_, err = fmt.Fprintln(pe.w, v)
	return
}

// Report writes the result in the given format. Plain and csv output one
// record per press, json and xml the whole result. Plain also prints the
// analysis summary.
func Report(enc Encoder, format string, result *pipeline.Result) error {
	switch strings.ToLower(format) {
	case "json", "xml":
		return enc.Encode(result)
	}

	for _, press := range result.Presses {
		if err := enc.Encode(press); err != nil {
			return errors.Wrap(err, "encoding press")
		}
	}

	if strings.ToLower(format) == "plain" {
		return enc.Encode(result.Analysis)
	}
	return nil
}
