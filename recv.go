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
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bemasher/rtlfob/capture"
	"github.com/bemasher/rtlfob/pipeline"
)

// BlockDuration is the length of each read from rtl_tcp. Interrupts are
// checked between blocks.
const BlockDuration = 100 * time.Millisecond

// Record captures from rtl_tcp until the duration elapses or the process
// is interrupted, whichever comes first. An interrupted recording keeps
// what was read so far.
func Record(f Flags, cfg pipeline.Config, log logrus.FieldLogger) (capture.Capture, error) {
	centerFreq := f.CenterFreq
	if centerFreq == 0 {
		centerFreq = cfg.Frequency
	}

	rcvr, err := capture.Dial(f.Server, centerFreq, uint32(cfg.Decode.SampleRate), log)
	if err != nil {
		return capture.Capture{}, err
	}
	defer rcvr.Close()

	// Setup signal channel for interruption.
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt)
	defer signal.Stop(sigint)

	block := int(BlockDuration.Seconds() * cfg.Decode.SampleRate)
	total := int(f.Duration.Seconds() * cfg.Decode.SampleRate)

	log.WithFields(logrus.Fields{
		"centerfreq": centerFreq,
		"duration":   f.Duration,
	}).Info("recording")

	recorded := capture.Capture{SampleRate: cfg.Decode.SampleRate}
	start := time.Now()

	for recorded.Len() < total {
		select {
		case <-sigint:
			log.WithField("elapsed", time.Since(start)).Warn("recording interrupted")
			return recorded, nil
		default:
		}

		n := block
		if remaining := total - recorded.Len(); remaining < n {
			n = remaining
		}

		c, err := rcvr.Record(n)
		if err != nil {
			return recorded, err
		}
		recorded.Samples = append(recorded.Samples, c.Samples...)
	}

	log.WithFields(logrus.Fields{
		"samples": recorded.Len(),
		"elapsed": time.Since(start),
	}).Info("recording complete")

	return recorded, nil
}
