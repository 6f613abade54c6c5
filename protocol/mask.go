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

// Package protocol compares payloads decoded from repeated transmissions of
// one remote and splits them into fields using registered layouts.
package protocol

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/bemasher/rtlfob/parse"
)

var (
	ErrTooFewPayloads = errors.New("at least two payloads are required")
	ErrLengthMismatch = errors.New("payload lengths differ")
)

// A PayloadMask partitions payload bits into those identical across every
// compared payload and those that vary. Fixed holds the constant bits'
// values; Changing marks the varying positions. No bit is set in both.
type PayloadMask struct {
	Fixed    parse.Bitstream `json:"fixed"`
	Changing parse.Bitstream `json:"changing"`
}

// Compare builds the mask for two or more equal length payloads. A bit is
// changing if any payload differs from the first at that position, which
// for two payloads is their exclusive or.
func Compare(payloads []parse.Bitstream) (PayloadMask, error) {
	if len(payloads) < 2 {
		return PayloadMask{}, errors.Wrapf(ErrTooFewPayloads, "found %d", len(payloads))
	}

	first := payloads[0]
	for idx, p := range payloads[1:] {
		if len(p) != len(first) {
			return PayloadMask{}, errors.Wrapf(ErrLengthMismatch, "payload %d has %d bits, expected %d", idx+1, len(p), len(first))
		}
	}

	mask := PayloadMask{
		Fixed:    make(parse.Bitstream, len(first)),
		Changing: make(parse.Bitstream, len(first)),
	}

	for _, p := range payloads[1:] {
		for idx := range p {
			mask.Changing[idx] |= p[idx] ^ first[idx]
		}
	}

	for idx := range first {
		mask.Fixed[idx] = (mask.Changing[idx] ^ 1) & first[idx]
	}

	return mask, nil
}

// Width returns the number of bits covered by the mask.
func (m PayloadMask) Width() int {
	return len(m.Changing)
}

// ChangingCount returns the number of varying bit positions.
func (m PayloadMask) ChangingCount() (n int) {
	for _, b := range m.Changing {
		n += int(b)
	}
	return
}

func (m PayloadMask) String() string {
	return fmt.Sprintf("{Fixed:%s Changing:%s}", m.Fixed, m.Changing)
}
