package pipeline

import (
	"github.com/pkg/errors"

	"github.com/bemasher/rtlfob/burst"
	"github.com/bemasher/rtlfob/decode"
	"github.com/bemasher/rtlfob/protocol"
	"github.com/bemasher/rtlfob/replay"
)

// Mode selects how the replay pulse train is derived from a press.
type Mode string

const (
	// ModeBits emits one fixed-width pulse per sampled bit.
	ModeBits Mode = "bits"
	// ModeZeroCrossing emits the intervals between demodulated sign changes.
	ModeZeroCrossing Mode = "zerocrossing"
)

// Source selects where payload bits come from.
type Source string

const (
	// SourceSampled uses the symbol sampler's decisions.
	SourceSampled Source = "sampled"
	// SourcePWM decodes pulse-width modulated zero crossing timings.
	SourcePWM Source = "pwm"
)

// DefaultWidth is the payload width of the common 64-bit rolling code
// family.
const DefaultWidth = 64

// PayloadConfig controls payload extraction from each press.
type PayloadConfig struct {
	// Preamble, if set, is searched for and the Width bits following each
	// occurrence become frames. Empty uses the whole bitstream.
	Preamble string `yaml:"preamble"`
	Width    int    `yaml:"width"`

	// Manchester attempts pair decoding. With a preamble, frames are
	// extracted at twice the payload width before decoding.
	Manchester bool `yaml:"manchester"`

	Source  Source  `yaml:"source"`
	TEDelta float64 `yaml:"tedelta"`

	// Layout names a registered field layout. Empty picks by width.
	Layout string `yaml:"layout"`
}

// Config is everything a pipeline run needs.
type Config struct {
	Decode decode.Config   `yaml:"decode"`
	Burst  burst.Segmenter `yaml:"burst"`

	// Guard is the number of samples kept on either side of a burst. Zero
	// selects 10ms.
	Guard int `yaml:"guard"`

	Mode      Mode   `yaml:"mode"`
	Frequency uint32 `yaml:"frequency"`
	Preset    string `yaml:"preset"`

	Payload PayloadConfig `yaml:"payload"`

	// Workers bounds the number of bursts decoded concurrently.
	Workers int `yaml:"workers"`
}

func DefaultConfig() Config {
	return Config{
		Decode: decode.Config{
			SampleRate: 2e6,
			BaudRate:   4800,
		},
		Burst: burst.Segmenter{
			Threshold: burst.DefaultThreshold,
			Bins:      burst.DefaultBins,
		},
		Mode:      ModeBits,
		Frequency: replay.DefaultFrequency,
		Preset:    replay.DefaultPreset,
		Payload: PayloadConfig{
			Width:   DefaultWidth,
			Source:  SourceSampled,
			TEDelta: protocol.DefaultTEDelta,
		},
		Workers: 1,
	}
}

// Validate checks enumerated values and fills zero values that have a
// derived default.
func (cfg *Config) Validate() error {
	switch cfg.Mode {
	case "":
		cfg.Mode = ModeBits
	case ModeBits, ModeZeroCrossing:
	default:
		return errors.Errorf("invalid mode: %q", cfg.Mode)
	}

	switch cfg.Payload.Source {
	case "":
		cfg.Payload.Source = SourceSampled
	case SourceSampled, SourcePWM:
	default:
		return errors.Errorf("invalid payload source: %q", cfg.Payload.Source)
	}

	if cfg.Payload.Width < 0 {
		return errors.Errorf("invalid payload width: %d", cfg.Payload.Width)
	}
	if cfg.Payload.Preamble != "" && cfg.Payload.Width == 0 {
		return errors.New("preamble search requires a payload width")
	}
	if cfg.Payload.TEDelta <= 0 {
		cfg.Payload.TEDelta = protocol.DefaultTEDelta
	}

	if cfg.Guard < 0 {
		return errors.Errorf("invalid guard: %d", cfg.Guard)
	}
	if cfg.Guard == 0 {
		cfg.Guard = int(cfg.Decode.SampleRate / 100)
	}

	// Without an explicit minimum, a burst must hold most of a payload.
	if cfg.Burst.MinLength == 0 && cfg.Payload.Width > 0 && cfg.Decode.BaudRate > 0 {
		derived := int(0.8 * float64(cfg.Payload.Width) * cfg.Decode.SampleRate / cfg.Decode.BaudRate)
		if derived > burst.DefaultMinLength {
			cfg.Burst.MinLength = derived
		}
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return nil
}
