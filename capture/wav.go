package capture

import (
	"bufio"
	"io"
	"os"

	"github.com/mjibson/go-dsp/wav"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrChannelCount is returned for recordings that are not two channel
	// interleaved I/Q.
	ErrChannelCount = errors.New("expected two channel I/Q recording")
	// ErrEncoding is returned for sample encodings other than 8-bit and
	// 16-bit PCM or 32-bit IEEE float.
	ErrEncoding = errors.New("unsupported sample encoding")
)

const (
	formatPCM       = 1
	formatIEEEFloat = 3
)

// LoadWAV reads a two channel WAV file holding I and Q on the left and
// right channels. A sampleRate of zero takes the rate from the file header,
// otherwise the given rate wins and a mismatch is logged.
func LoadWAV(path string, sampleRate float64, log logrus.FieldLogger) (Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Capture{}, errors.Wrap(err, "opening capture")
	}
	defer f.Close()

	c, err := DecodeWAV(bufio.NewReader(f), sampleRate, log)
	if err != nil {
		return Capture{}, errors.Wrapf(err, "reading %s", path)
	}
	return c, nil
}

// DecodeWAV is LoadWAV for an already opened stream.
func DecodeWAV(r io.Reader, sampleRate float64, log logrus.FieldLogger) (Capture, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	w, err := wav.New(r)
	if err != nil {
		return Capture{}, errors.Wrap(err, "parsing header")
	}

	if w.NumChannels != 2 {
		return Capture{}, errors.Wrapf(ErrChannelCount, "found %d channels", w.NumChannels)
	}

	switch {
	case w.AudioFormat == formatPCM && (w.BitsPerSample == 8 || w.BitsPerSample == 16):
	case w.AudioFormat == formatIEEEFloat && w.BitsPerSample == 32:
	default:
		return Capture{}, errors.Wrapf(ErrEncoding, "format %d, %d bits per sample", w.AudioFormat, w.BitsPerSample)
	}

	headerRate := float64(w.SampleRate)
	if sampleRate <= 0 {
		sampleRate = headerRate
	} else if sampleRate != headerRate {
		log.WithFields(logrus.Fields{
			"header":     headerRate,
			"configured": sampleRate,
		}).Warn("sample rate mismatch, using configured rate")
	}

	data, err := readSamples(w)
	if err != nil {
		return Capture{}, errors.Wrap(err, "reading samples")
	}

	samples, err := Normalize(data)
	if err != nil {
		return Capture{}, err
	}

	log.WithFields(logrus.Fields{
		"samples": len(samples),
		"rate":    sampleRate,
		"bits":    w.BitsPerSample,
	}).Debug("loaded capture")

	return Capture{Samples: samples, SampleRate: sampleRate}, nil
}

// readSamples reads the whole data chunk. The header's sample count is
// rounded down to a multiple of 8 values, so the remainder is read one
// frame at a time until the chunk runs out. A partial final frame is
// dropped.
func readSamples(w *wav.Wav) (interface{}, error) {
	var data interface{}
	if w.Samples > 0 {
		bulk, err := w.ReadSamples(w.Samples)
		if err != nil {
			return nil, err
		}
		data = bulk
	}

	for {
		frame, err := w.ReadSamples(int(w.NumChannels))
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, err
		}
		data = appendSamples(data, frame)
	}

	if data == nil {
		switch w.BitsPerSample {
		case 8:
			return []uint8{}, nil
		case 16:
			return []int16{}, nil
		}
		return []float32{}, nil
	}
	return data, nil
}

func appendSamples(data, frame interface{}) interface{} {
	switch v := frame.(type) {
	case []uint8:
		if data == nil {
			return v
		}
		return append(data.([]uint8), v...)
	case []int16:
		if data == nil {
			return v
		}
		return append(data.([]int16), v...)
	case []float32:
		if data == nil {
			return v
		}
		return append(data.([]float32), v...)
	}
	return data
}

// Normalize converts interleaved I/Q values into complex samples. Unsigned
// 8-bit values are centred on 128 and 16-bit values are divided by 32768 so
// each component lies in [-1, 1). Floats pass through unchanged. A trailing
// unpaired value is dropped.
func Normalize(data interface{}) ([]complex128, error) {
	switch v := data.(type) {
	case []uint8:
		out := make([]complex128, len(v)>>1)
		for idx := range out {
			i := (float64(v[idx<<1]) - 128) / 128
			q := (float64(v[idx<<1+1]) - 128) / 128
			out[idx] = complex(i, q)
		}
		return out, nil
	case []int16:
		out := make([]complex128, len(v)>>1)
		for idx := range out {
			out[idx] = complex(float64(v[idx<<1])/32768, float64(v[idx<<1+1])/32768)
		}
		return out, nil
	case []float32:
		out := make([]complex128, len(v)>>1)
		for idx := range out {
			out[idx] = complex(float64(v[idx<<1]), float64(v[idx<<1+1]))
		}
		return out, nil
	}
	return nil, errors.Wrapf(ErrEncoding, "sample type %T", data)
}
