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
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/bemasher/rtlfob/capture"
	"github.com/bemasher/rtlfob/pipeline"
	"github.com/bemasher/rtlfob/replay"

	_ "github.com/bemasher/rtlfob/keeloq"
)

var (
	buildTag   = "dev"     // v#.#.#
	buildDate  = "unknown" // date -u '+%Y-%m-%d'
	commitHash = "unknown" // git rev-parse HEAD
)

func init() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000000",
	})
}

func run(f Flags, fs *flag.FlagSet, log *logrus.Logger) error {
	cfg, err := f.BuildConfig(fs)
	if err != nil {
		return err
	}

	var c capture.Capture
	if f.Input != "" {
		c, err = capture.LoadWAV(f.Input, cfg.Decode.SampleRate, log)
	} else {
		c, err = Record(f, cfg, log)
	}
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"samples":  c.Len(),
		"rate":     c.SampleRate,
		"duration": c.Duration(),
	}).Info("loaded capture")

	// A wav header's rate is used when none was configured.
	cfg.Decode.SampleRate = c.SampleRate

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}
	p.Log()

	result, err := p.Process(c)
	if err != nil {
		return err
	}

	enc, err := NewEncoder(f.Format, os.Stdout)
	if err != nil {
		return err
	}
	if err := Report(enc, f.Format, result); err != nil {
		return errors.Wrap(err, "writing report")
	}

	if err := replay.Write(f.Output, result.Replay); err != nil {
		return errors.Wrapf(err, "writing %s", f.Output)
	}

	log.WithFields(logrus.Fields{
		"file":     f.Output,
		"pulses":   len(result.Replay.Data),
		"warnings": len(result.Warnings),
	}).Info("wrote replay file")

	return nil
}

func main() {
	log := logrus.StandardLogger()

	var f Flags
	fs := flag.CommandLine
	f.Register(fs)
	EnvOverride(fs, log)
	flag.Parse()

	if f.Version {
		fmt.Println("Build Tag: ", buildTag)
		fmt.Println("Build Date:", buildDate)
		fmt.Println("Commit:    ", commitHash)
		os.Exit(0)
	}

	if f.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := run(f, fs, log); err != nil {
		if errors.Cause(err) == pipeline.ErrNoBursts {
			log.Fatal("no button presses detected")
		}
		log.Fatalf("%+v", err)
	}
}
