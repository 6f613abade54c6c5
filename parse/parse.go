// Package parse holds the data passed between decoding stages: recovered
// bitstreams and signed pulse timings.
package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Bitstream holds one recovered symbol per byte, each 0 or 1.
type Bitstream []byte

// ParseBitstream converts a string of ascii 0's and 1's into a Bitstream.
func ParseBitstream(s string) (Bitstream, error) {
	bits := make(Bitstream, len(s))
	for idx, c := range s {
		switch c {
		case '0':
		case '1':
			bits[idx] = 1
		default:
			return nil, errors.Errorf("invalid bit %q at offset %d", c, idx)
		}
	}
	return bits, nil
}

// MustParseBitstream is like ParseBitstream but panics on malformed input.
// Intended for constants and tests.
func MustParseBitstream(s string) Bitstream {
	bits, err := ParseBitstream(s)
	if err != nil {
		panic(err)
	}
	return bits
}

// UnpackBits expands each byte of data into eight bits, most significant
// first.
func UnpackBits(data []byte) Bitstream {
	bits := make(Bitstream, len(data)<<3)

	for idx, b := range data {
		offset := idx << 3
		for bit := 7; bit >= 0; bit-- {
			bits[offset+(7-bit)] = (b >> uint8(bit)) & 0x01
		}
	}

	return bits
}

func (b Bitstream) String() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, bit := range b {
		sb.WriteByte('0' + bit&1)
	}
	return sb.String()
}

// MarshalText encodes the bitstream as ascii 0's and 1's.
func (b Bitstream) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bitstream) UnmarshalText(text []byte) error {
	bits, err := ParseBitstream(string(text))
	if err != nil {
		return err
	}
	*b = bits
	return nil
}

// Bytes packs the bitstream 8 bits per byte, most significant first. A
// trailing partial byte is padded with zeros on the right.
func (b Bitstream) Bytes() []byte {
	packed := make([]byte, (len(b)+7)>>3)
	for idx, bit := range b {
		packed[idx>>3] |= (bit & 1) << uint(7-idx&7)
	}
	return packed
}

// Uint64 interprets the bitstream as an unsigned big-endian integer. Only
// the last 64 bits contribute.
func (b Bitstream) Uint64() (v uint64) {
	for _, bit := range b {
		v = v<<1 | uint64(bit&1)
	}
	return
}

// Hex formats the bitstream as upper-case hexadecimal, left-aligned like
// Bytes.
func (b Bitstream) Hex() string {
	return fmt.Sprintf("%X", b.Bytes())
}

// Equal reports whether both bitstreams hold the same bits.
func (b Bitstream) Equal(other Bitstream) bool {
	if len(b) != len(other) {
		return false
	}
	for idx := range b {
		if b[idx] != other[idx] {
			return false
		}
	}
	return true
}

// Index returns the offset of the first occurrence of sub at or after
// from, or -1.
func (b Bitstream) Index(sub Bitstream, from int) int {
	if len(sub) == 0 {
		return from
	}
	for idx := from; idx+len(sub) <= len(b); idx++ {
		if b[idx] == sub[0] && b[idx:idx+len(sub)].Equal(sub) {
			return idx
		}
	}
	return -1
}

// A PulseTrain is a sequence of signed durations in microseconds. Positive
// values are carrier-on, negative carrier-off.
type PulseTrain []int

// Valid reports whether the train has no zero entries and its signs
// strictly alternate.
func (p PulseTrain) Valid() bool {
	for idx, v := range p {
		if v == 0 {
			return false
		}
		if idx > 0 && (v > 0) == (p[idx-1] > 0) {
			return false
		}
	}
	return true
}

// Duration returns the total length of the train in microseconds.
func (p PulseTrain) Duration() (total int) {
	for _, v := range p {
		if v < 0 {
			v = -v
		}
		total += v
	}
	return
}

func (p PulseTrain) String() string {
	values := make([]string, len(p))
	for idx, v := range p {
		values[idx] = strconv.Itoa(v)
	}
	return strings.Join(values, " ")
}

// ParsePulseTrain reads whitespace-separated signed integers.
func ParsePulseTrain(s string) (PulseTrain, error) {
	fields := strings.Fields(s)
	p := make(PulseTrain, len(fields))
	for idx, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, errors.Wrapf(err, "pulse %d", idx)
		}
		p[idx] = v
	}
	return p, nil
}
