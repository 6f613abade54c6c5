package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bemasher/rtlfob/capture"
	"github.com/bemasher/rtlfob/decode"
	"github.com/bemasher/rtlfob/gen"
	"github.com/bemasher/rtlfob/parse"
	"github.com/bemasher/rtlfob/replay"

	_ "github.com/bemasher/rtlfob/keeloq"
)

const (
	testRate = 2e6
	testBaud = 4800

	testPreamble = "1010101011110000"
	testTrailer  = "1010"
)

var testPayload = parse.MustParseBitstream(
	"1100101000111101011100001011010011100110001011101001011000111010",
)

func generator() gen.FSK {
	return gen.FSK{
		SampleRate: testRate,
		BaudRate:   testBaud,
		Deviation:  10e3,
		Amplitude:  1,
		Lead:       30000,
		Tail:       30000,
		Floor:      0.01,
	}
}

func frame(payload parse.Bitstream) parse.Bitstream {
	var bits parse.Bitstream
	bits = append(bits, parse.MustParseBitstream(testPreamble)...)
	bits = append(bits, payload...)
	bits = append(bits, parse.MustParseBitstream(testTrailer)...)
	return bits
}

func quietLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func newPipeline(t *testing.T, cfg Config) *Pipeline {
	t.Helper()
	p, err := New(cfg, quietLogger())
	require.NoError(t, err)
	return p
}

func TestEndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	p := newPipeline(t, cfg)

	c := capture.Capture{
		Samples:    generator().Modulate(frame(testPayload)),
		SampleRate: testRate,
	}

	result, err := p.Process(c)
	require.NoError(t, err)
	require.Len(t, result.Presses, 1)

	press := result.Presses[0]
	assert.Equal(t, 30000, press.Start)
	assert.InDelta(t, 65000, press.End, 100)

	// The guard holds Guard/SamplesPerSymbol idle symbols ahead of the frame.
	bits := press.Bits.String()
	idx := strings.Index(bits, testPreamble)
	require.True(t, idx >= 0, "preamble not in %s", bits)
	assert.InDelta(t, float64(p.Cfg.Guard)*testBaud/testRate, idx, 2)

	sent := frame(testPayload)
	require.True(t, len(press.Bits) >= idx+len(sent), "bitstream truncated: %s", bits)
	assert.Equal(t, sent.String(), press.Bits[idx:idx+len(sent)].String())
	assert.Equal(t, testPayload.String(), press.Bits[idx+len(testPreamble):idx+len(testPreamble)+len(testPayload)].String())

	assert.True(t, result.Analysis.Skipped)
	assert.Empty(t, result.Warnings)

	assert.Equal(t, uint32(replay.DefaultFrequency), result.Replay.Frequency)
	assert.Equal(t, replay.DefaultPreset, result.Replay.Preset)
	assert.True(t, result.Replay.Data.Valid())
	assert.Equal(t, decode.BitPulses(press.Bits, testBaud), result.Replay.Data)
}

func TestPreamblePayload(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Payload.Preamble = testPreamble
	p := newPipeline(t, cfg)

	c := capture.Capture{
		Samples:    generator().Modulate(frame(testPayload)),
		SampleRate: testRate,
	}

	result, err := p.Process(c)
	require.NoError(t, err)
	require.Len(t, result.Presses, 1)

	press := result.Presses[0]
	assert.Equal(t, testPayload.String(), press.Payload.String())
	assert.Equal(t, 1, press.Frames)
	assert.Equal(t, 1, press.Distinct)
}

func TestManchesterPayload(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Payload.Preamble = testPreamble
	cfg.Payload.Manchester = true
	p := newPipeline(t, cfg)

	// The doubled frame outlasts the default idle, so pad it until the
	// floor still holds the modal envelope bin.
	g := generator()
	g.Lead, g.Tail = 80000, 80000

	c := capture.Capture{
		Samples:    g.Modulate(frame(gen.EncodeManchester(testPayload))),
		SampleRate: testRate,
	}

	result, err := p.Process(c)
	require.NoError(t, err)
	require.Len(t, result.Presses, 1)

	press := result.Presses[0]
	assert.Equal(t, "manchester", string(press.Encoding))
	assert.Equal(t, testPayload.String(), press.Payload.String())
}

func TestMultiplePresses(t *testing.T) {
	g := generator()

	// Same identity, different counters.
	payloads := []parse.Bitstream{
		testPayload,
		append(append(parse.Bitstream{}, testPayload[:28]...), parse.MustParseBitstream("001101010110110001110010101010011100")...),
		append(append(parse.Bitstream{}, testPayload[:28]...), parse.MustParseBitstream("110010101001001110001101010101100011")...),
	}

	var samples []complex128
	for _, payload := range payloads {
		require.Len(t, payload, 64)
		samples = append(samples, g.Modulate(frame(payload))...)
	}

	cfg := DefaultConfig()
	cfg.Payload.Preamble = testPreamble
	cfg.Workers = 3
	p := newPipeline(t, cfg)

	result, err := p.Process(capture.Capture{Samples: samples, SampleRate: testRate})
	require.NoError(t, err)
	require.Len(t, result.Presses, 3)

	for idx, press := range result.Presses {
		assert.Equal(t, idx, press.Index)
		assert.Equal(t, payloads[idx].String(), press.Payload.String(), "press %d", idx)
	}
	assert.True(t, result.Presses[0].Start < result.Presses[1].Start)
	assert.True(t, result.Presses[1].Start < result.Presses[2].Start)

	a := result.Analysis
	require.False(t, a.Skipped, a.Reason)
	assert.Equal(t, 64, a.Width)
	assert.Equal(t, 3, a.Payloads)
	assert.Equal(t, strings.Repeat("0", 28), a.Mask.Changing[:28].String())
	assert.Equal(t, testPayload[:28].String(), a.Mask.Fixed[:28].String())

	assert.Equal(t, "keeloq", a.Layout)
	require.NotEmpty(t, a.Fields)
	assert.Equal(t, "fixed_id", a.Fields[0].Name)
	assert.Equal(t, testPayload[:28].String(), a.Fields[0].Bits.String())

	assert.Equal(t, result.Presses[0].Pulses, result.Replay.Data)
}

func TestZeroCrossingReplay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeZeroCrossing
	p := newPipeline(t, cfg)

	c := capture.Capture{
		Samples:    generator().Modulate(frame(testPayload)),
		SampleRate: testRate,
	}

	result, err := p.Process(c)
	require.NoError(t, err)

	data := result.Replay.Data
	require.NotEmpty(t, data)
	assert.True(t, data.Valid())
	assert.Equal(t, result.Presses[0].Pulses, data)
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fob.wav")

	out, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, gen.WriteWAV(out, generator().Modulate(frame(testPayload)), testRate))
	require.NoError(t, out.Close())

	c, err := capture.LoadWAV(path, 0, quietLogger())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Payload.Preamble = testPreamble
	p := newPipeline(t, cfg)

	result, err := p.Process(c)
	require.NoError(t, err)
	require.Len(t, result.Presses, 1)
	assert.Equal(t, testPayload.String(), result.Presses[0].Payload.String())
}

func TestNoBursts(t *testing.T) {
	p := newPipeline(t, DefaultConfig())

	samples := make([]complex128, 50000)
	for idx := range samples {
		samples[idx] = complex(0.01, 0)
	}

	_, err := p.Process(capture.Capture{Samples: samples, SampleRate: testRate})
	assert.Equal(t, ErrNoBursts, errors.Cause(err))
}

func TestSampleRateMismatch(t *testing.T) {
	p := newPipeline(t, DefaultConfig())

	_, err := p.Process(capture.Capture{Samples: make([]complex128, 10), SampleRate: 1e6})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20000, cfg.Guard)
	assert.Equal(t, 21333, cfg.Burst.MinLength)
	assert.Equal(t, 1, cfg.Workers)

	cfg = DefaultConfig()
	cfg.Payload.Width = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0, cfg.Burst.MinLength)

	cfg = DefaultConfig()
	cfg.Mode = "analog"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Payload.Source = "ppm"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Payload.Preamble = "1010"
	cfg.Payload.Width = 0
	assert.Error(t, cfg.Validate())
}

func TestNewErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Payload.Layout = "missing"
	_, err := New(cfg, quietLogger())
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Payload.Preamble = "10x"
	_, err = New(cfg, quietLogger())
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Decode.BaudRate = 0
	_, err = New(cfg, quietLogger())
	assert.Error(t, err)
}

func TestPressRecord(t *testing.T) {
	press := Press{
		Index:      2,
		Start:      10,
		End:        20,
		Bits:       parse.MustParseBitstream("0110"),
		Payload:    parse.MustParseBitstream("11"),
		Encoding:   "raw",
		ClockError: 0.25,
	}

	assert.Equal(t, len(press.Header()), len(press.Record()))
	assert.Equal(t, []string{"2", "10", "20", "raw", "0", "0", "0.250", "11", "0110"}, press.Record())
}
