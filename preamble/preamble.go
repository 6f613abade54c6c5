// Package preamble locates a known bit pattern in a recovered bitstream and
// slices out the fixed-width payloads that follow it.
package preamble

import (
	"github.com/pkg/errors"

	"github.com/bemasher/rtlfob/parse"
)

// A Finder searches for Preamble and extracts Width bits after each match.
type Finder struct {
	Preamble parse.Bitstream
	Width    int
}

// NewFinder parses a preamble of ascii 0's and 1's.
func NewFinder(preamble string, width int) (Finder, error) {
	if preamble == "" {
		return Finder{}, errors.New("empty preamble")
	}
	if width <= 0 {
		return Finder{}, errors.Errorf("invalid payload width: %d", width)
	}

	bits, err := parse.ParseBitstream(preamble)
	if err != nil {
		return Finder{}, errors.Wrap(err, "parsing preamble")
	}

	return Finder{Preamble: bits, Width: width}, nil
}

// Search returns every index the preamble begins at, including
// overlapping matches.
func (f Finder) Search(bits parse.Bitstream) (indexes []int) {
	for idx := bits.Index(f.Preamble, 0); idx != -1; idx = bits.Index(f.Preamble, idx+1) {
		indexes = append(indexes, idx)
	}
	return
}

// A Payload is the slice of bits following a preamble match.
type Payload struct {
	Index int
	Bits  parse.Bitstream
}

// Payloads scans for the preamble and takes the Width bits that follow it.
// Scanning resumes after each payload so payloads never overlap. A match
// too close to the end to hold a full payload ends the scan.
func (f Finder) Payloads(bits parse.Bitstream) (payloads []Payload) {
	idx := bits.Index(f.Preamble, 0)
	for idx != -1 {
		start := idx + len(f.Preamble)
		end := start + f.Width
		if end > len(bits) {
			break
		}

		payload := make(parse.Bitstream, f.Width)
		copy(payload, bits[start:end])
		payloads = append(payloads, Payload{Index: start, Bits: payload})

		idx = bits.Index(f.Preamble, end)
	}
	return
}
