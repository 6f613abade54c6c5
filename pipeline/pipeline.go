// Package pipeline runs a capture through burst segmentation, per-burst
// decoding and the cross-press analysis, and builds the replay file from
// the first press.
package pipeline

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/bemasher/rtlfob/burst"
	"github.com/bemasher/rtlfob/capture"
	"github.com/bemasher/rtlfob/crc"
	"github.com/bemasher/rtlfob/decode"
	"github.com/bemasher/rtlfob/parse"
	"github.com/bemasher/rtlfob/preamble"
	"github.com/bemasher/rtlfob/protocol"
	"github.com/bemasher/rtlfob/replay"
)

// ErrNoBursts is returned when a capture holds no transmissions.
var ErrNoBursts = errors.New("no bursts found")

// A Press is everything recovered from one burst.
type Press struct {
	Index int `json:"index" xml:"index,attr"`
	Start int `json:"start" xml:"start,attr"`
	End   int `json:"end" xml:"end,attr"`

	Bits       parse.Bitstream  `json:"bits" xml:"bits"`
	Pulses     parse.PulseTrain `json:"pulses" xml:"pulses"`
	ClockError float64          `json:"clockError" xml:"clockError"`

	// Payload is the bit sequence compared across presses. Nil when none
	// could be extracted.
	Payload  parse.Bitstream   `json:"payload,omitempty" xml:"payload,omitempty"`
	Encoding protocol.Encoding `json:"encoding" xml:"encoding"`

	// Frames counts preamble matches, Distinct the unique frames among them.
	Frames   int `json:"frames" xml:"frames"`
	Distinct int `json:"distinct" xml:"distinct"`

	Warnings []string `json:"warnings,omitempty" xml:"warning,omitempty"`
}

func (p Press) String() string {
	return fmt.Sprintf("{Press:%d Start:%d End:%d Bits:%d Payload:%s Encoding:%s Frames:%d Pulses:%d}",
		p.Index, p.Start, p.End, len(p.Bits), p.Payload, p.Encoding, p.Frames, len(p.Pulses),
	)
}

func (p Press) Header() []string {
	return []string{"press", "start", "end", "encoding", "frames", "distinct", "clock_error", "payload", "bits"}
}

func (p Press) Record() []string {
	return []string{
		strconv.Itoa(p.Index),
		strconv.Itoa(p.Start),
		strconv.Itoa(p.End),
		string(p.Encoding),
		strconv.Itoa(p.Frames),
		strconv.Itoa(p.Distinct),
		strconv.FormatFloat(p.ClockError, 'f', 3, 64),
		p.Payload.String(),
		p.Bits.String(),
	}
}

// Result is the outcome of processing one capture.
type Result struct {
	SampleRate float64 `json:"sampleRate"`
	Threshold  float64 `json:"threshold"`

	Presses  []Press           `json:"presses"`
	Analysis protocol.Analysis `json:"analysis"`
	Replay   replay.File       `json:"-" xml:"-"`

	// Warnings collects every degraded condition met during the run.
	Warnings []string `json:"warnings,omitempty"`
}

// A Pipeline holds the filters and search state derived from a Config. It
// may process any number of captures.
type Pipeline struct {
	Cfg Config

	decoder *decode.Decoder
	finder  *preamble.Finder

	log logrus.FieldLogger
}

func New(cfg Config, log logrus.FieldLogger) (*Pipeline, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{Cfg: cfg, log: log}

	var err error
	p.decoder, err = decode.NewDecoder(cfg.Decode, log)
	if err != nil {
		return nil, err
	}

	if cfg.Payload.Preamble != "" {
		width := cfg.Payload.Width
		if cfg.Payload.Manchester {
			width <<= 1
		}

		finder, err := preamble.NewFinder(cfg.Payload.Preamble, width)
		if err != nil {
			return nil, err
		}
		p.finder = &finder
	}

	if cfg.Payload.Layout != "" {
		if _, err := protocol.Lookup(cfg.Payload.Layout); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Pipeline) Log() {
	p.decoder.Log()
	p.log.WithFields(logrus.Fields{
		"mode":       p.Cfg.Mode,
		"guard":      p.Cfg.Guard,
		"minLength":  p.Cfg.Burst.MinLength,
		"preamble":   p.Cfg.Payload.Preamble,
		"width":      p.Cfg.Payload.Width,
		"manchester": p.Cfg.Payload.Manchester,
		"source":     p.Cfg.Payload.Source,
		"workers":    p.Cfg.Workers,
	}).Info("pipeline")
}

// Process segments c into bursts, decodes each one and compares the
// resulting payloads. Bursts are decoded by up to Workers goroutines;
// presses are returned in capture order regardless.
func (p *Pipeline) Process(c capture.Capture) (*Result, error) {
	if c.SampleRate != p.Cfg.Decode.SampleRate {
		return nil, errors.Errorf("capture sample rate %g does not match configured %g", c.SampleRate, p.Cfg.Decode.SampleRate)
	}

	bursts, threshold := p.Cfg.Burst.Segment(c.Envelope())
	p.log.WithFields(logrus.Fields{
		"samples":   c.Len(),
		"threshold": threshold,
		"bursts":    len(bursts),
	}).Info("segmented capture")

	if len(bursts) == 0 {
		return nil, ErrNoBursts
	}

	result := &Result{
		SampleRate: c.SampleRate,
		Threshold:  threshold,
		Presses:    make([]Press, len(bursts)),
		Warnings:   append([]string(nil), p.decoder.Warnings()...),
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.Cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				result.Presses[idx] = p.press(c, idx, bursts[idx])
			}
		}()
	}
	for idx := range bursts {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	var payloads []parse.Bitstream
	for _, press := range result.Presses {
		result.Warnings = append(result.Warnings, press.Warnings...)
		if press.Payload != nil {
			payloads = append(payloads, press.Payload)
		}
	}

	analysis, err := protocol.Analyze(payloads, protocol.Options{Layout: p.Cfg.Payload.Layout})
	if err != nil {
		return nil, errors.Wrap(err, "analyzing payloads")
	}
	if analysis.Skipped {
		p.log.WithField("reason", analysis.Reason).Warn("analysis skipped")
	} else if analysis.Reason != "" {
		p.log.WithField("reason", analysis.Reason).Warn("layout not applied")
	}
	result.Analysis = analysis

	first := result.Presses[0]
	result.Replay = replay.File{
		Frequency: p.Cfg.Frequency,
		Preset:    p.Cfg.Preset,
		Data:      first.Pulses,
	}
	if len(first.Pulses) == 0 {
		result.Warnings = append(result.Warnings, "first press produced no pulses")
		p.log.Warn("first press produced no pulses")
	}

	return result, nil
}

// press decodes a single burst. It never fails; problems are recorded as
// warnings on the press.
func (p *Pipeline) press(c capture.Capture, idx int, b burst.Burst) Press {
	log := p.log.WithFields(logrus.Fields{
		"press": idx,
		"start": b.Start,
		"end":   b.End,
	})

	guarded := b.Guarded(p.Cfg.Guard, c.Len())
	sub := c.Slice(guarded.Start, guarded.End)

	r := p.decoder.Decode(sub.Samples, b.Start-guarded.Start)

	press := Press{
		Index:      idx,
		Start:      b.Start,
		End:        b.End,
		Bits:       r.Bits,
		ClockError: r.ClockError,
		Encoding:   protocol.EncodingRaw,
	}

	warn := func(msg string) {
		press.Warnings = append(press.Warnings, fmt.Sprintf("press %d: %s", idx, msg))
		log.Warn(msg)
	}

	switch p.Cfg.Mode {
	case ModeBits:
		press.Pulses = decode.BitPulses(r.Bits, p.Cfg.Decode.BaudRate)
	case ModeZeroCrossing:
		press.Pulses = r.Crossings
	}

	bits := r.Bits
	if p.Cfg.Payload.Source == SourcePWM {
		lengths, err := protocol.EstimatePulseLengths(r.Crossings, p.Cfg.Payload.TEDelta)
		if err != nil {
			warn(err.Error())
			return press
		}
		log.WithFields(logrus.Fields{
			"short": lengths.Short,
			"long":  lengths.Long,
		}).Debug("pulse lengths")

		bits = protocol.DecodePWM(r.Crossings, lengths, p.Cfg.Payload.TEDelta)
		press.Encoding = protocol.EncodingPWM
	}

	if p.finder != nil {
		var frames []parse.Bitstream
		for _, payload := range p.finder.Payloads(bits) {
			frames = append(frames, payload.Bits)
		}
		press.Frames = len(frames)
		if len(frames) == 0 {
			warn("preamble not found")
			return press
		}

		unique := crc.CCITT.Dedupe(frames)
		press.Distinct = len(unique)

		// The most repeated frame wins, earliest on ties.
		best := unique[0]
		for _, f := range unique[1:] {
			if f.Count > best.Count {
				best = f
			}
		}
		bits = best.Bits
	}

	if p.Cfg.Payload.Manchester {
		decoded, enc, err := protocol.Normalize(bits, p.Cfg.Payload.Width)
		if err != nil {
			warn(err.Error())
		}
		bits = decoded
		if enc == protocol.EncodingManchester {
			press.Encoding = enc
		}
	}

	press.Payload = bits

	log.WithFields(logrus.Fields{
		"bits":       len(r.Bits),
		"payload":    len(press.Payload),
		"frames":     press.Frames,
		"clockError": r.ClockError,
	}).Debug("press")

	return press
}
