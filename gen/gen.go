// Package gen synthesizes key fob captures for testing the decoder.
package gen

import (
	"crypto/rand"
	"io"
	"math"
	"math/cmplx"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"

	"github.com/bemasher/rtlfob/parse"
)

// RandomPayload returns n random bits.
func RandomPayload(n int) (parse.Bitstream, error) {
	buf := make([]byte, (n+7)>>3)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return parse.UnpackBits(buf)[:n], nil
}

// EncodeManchester expands each bit into a pair, 1 as 01 and 0 as 10.
func EncodeManchester(bits parse.Bitstream) parse.Bitstream {
	encoded := make(parse.Bitstream, 0, len(bits)<<1)
	for _, b := range bits {
		encoded = append(encoded, b^1, b)
	}
	return encoded
}

// FSK describes a continuous-phase 2-FSK transmitter. Bit 1 transmits
// Offset+Deviation and bit 0 Offset-Deviation. The frame is surrounded by
// Lead and Tail samples of unmodulated carrier at amplitude Floor.
type FSK struct {
	SampleRate float64
	BaudRate   float64
	Deviation  float64
	Offset     float64
	Amplitude  float64

	Lead, Tail int
	Floor      float64
}

// FrameLength returns the number of samples occupied by n symbols.
func (g FSK) FrameLength(n int) int {
	return int(math.Ceil(float64(n) * g.SampleRate / g.BaudRate))
}

// Modulate renders bits, including the idle lead and tail.
func (g FSK) Modulate(bits parse.Bitstream) []complex128 {
	frame := g.FrameLength(len(bits))
	signal := make([]complex128, 0, g.Lead+frame+g.Tail)

	phase := 0.0
	emit := func(amplitude, freq float64) {
		signal = append(signal, complex(amplitude, 0)*cmplx.Exp(complex(0, phase)))
		phase = math.Mod(phase+2*math.Pi*freq/g.SampleRate, 2*math.Pi)
	}

	for idx := 0; idx < g.Lead; idx++ {
		emit(g.Floor, g.Offset)
	}
	for idx := 0; idx < frame; idx++ {
		sym := int(float64(idx) * g.BaudRate / g.SampleRate)
		if sym >= len(bits) {
			sym = len(bits) - 1
		}

		freq := g.Offset - g.Deviation
		if bits[sym] == 1 {
			freq = g.Offset + g.Deviation
		}
		emit(g.Amplitude, freq)
	}
	for idx := 0; idx < g.Tail; idx++ {
		emit(g.Floor, g.Offset)
	}

	return signal
}

// WriteWAV encodes samples as a two channel 16-bit PCM WAV, I on the left
// channel and Q on the right. Components are clipped to [-1, 1].
func WriteWAV(w io.WriteSeeker, samples []complex128, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           make([]int, len(samples)<<1),
		SourceBitDepth: 16,
	}
	for idx, s := range samples {
		buf.Data[idx<<1] = toInt16(real(s))
		buf.Data[idx<<1+1] = toInt16(imag(s))
	}

	if err := enc.Write(buf); err != nil {
		return errors.Wrap(err, "encoding samples")
	}
	return errors.Wrap(enc.Close(), "finalizing wav")
}

func toInt16(v float64) int {
	v = math.Max(-1, math.Min(1, v))
	return int(math.Round(v * math.MaxInt16))
}
