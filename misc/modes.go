// Calculates:
// Sample rates an rtl-sdr can produce that decimate to exactly ten samples
// per symbol for a given baud rate.
// Decimation factor and FIR length at each rate.

package main

import (
	"fmt"
	"math"

	flag "github.com/spf13/pflag"

	"github.com/bemasher/rtlfob/decode"
)

const (
	// Valid sample rates fall in one of two bands:
	// http://cgit.osmocom.org/rtl-sdr/tree/src/librtlsdr.c#n1069
	LowerMin = 225e3
	LowerMax = 300e3
	UpperMin = 900e3
	UpperMax = 3.2e6
)

type Mode struct {
	SampleRate float64
	Decimation int
	Taps       int
}

func (m Mode) String() string {
	return fmt.Sprintf("SampleRate:%.0f Decimation:%d Taps:%d", m.SampleRate, m.Decimation, m.Taps)
}

func Valid(sampleRate float64) bool {
	return (LowerMin < sampleRate && sampleRate <= LowerMax) || (UpperMin < sampleRate && sampleRate <= UpperMax)
}

// Modes lists every valid sample rate that is an integer multiple of ten
// times baudRate.
func Modes(baudRate float64) (modes []Mode) {
	base := decode.OversampleFactor * baudRate
	for factor := 1; factor <= int(math.Ceil(UpperMax/base)); factor++ {
		sampleRate := float64(factor) * base
		if !Valid(sampleRate) {
			continue
		}

		q := decode.DecimationFactor(sampleRate, baudRate)
		modes = append(modes, Mode{
			SampleRate: sampleRate,
			Decimation: q,
			Taps:       len(decode.NewDecimator(q).Taps),
		})
	}
	return
}

func main() {
	baudRate := flag.Float64("baudrate", 4800, "symbol rate in baud")
	flag.Parse()

	for _, m := range Modes(*baudRate) {
		fmt.Println(m)
	}
}
