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

package protocol

import (
	"github.com/pkg/errors"

	"github.com/bemasher/rtlfob/parse"
)

// Encoding names how a payload was recovered from the raw decisions.
type Encoding string

const (
	EncodingRaw        Encoding = "raw"
	EncodingManchester Encoding = "manchester"
	EncodingPWM        Encoding = "pwm"
)

// ErrManchesterWidth is returned by Normalize when Manchester decoding does
// not produce the expected number of bits.
var ErrManchesterWidth = errors.New("manchester decoding did not match expected width")

// DecodeManchester decodes non-overlapping pairs, 01 as 1 and 10 as 0.
// Invalid pairs are skipped. A trailing odd bit is ignored.
func DecodeManchester(bits parse.Bitstream) parse.Bitstream {
	decoded := make(parse.Bitstream, 0, len(bits)>>1)
	for idx := 0; idx+1 < len(bits); idx += 2 {
		switch {
		case bits[idx] == 0 && bits[idx+1] == 1:
			decoded = append(decoded, 1)
		case bits[idx] == 1 && bits[idx+1] == 0:
			decoded = append(decoded, 0)
		}
	}
	return decoded
}

// Normalize tries Manchester decoding when bits is longer than width and
// has an even length. The decoded stream is used only if it has exactly
// width bits. Otherwise the raw bits are returned, with ErrManchesterWidth
// if decoding was attempted.
func Normalize(bits parse.Bitstream, width int) (parse.Bitstream, Encoding, error) {
	if width <= 0 || len(bits) <= width || len(bits)%2 != 0 {
		return bits, EncodingRaw, nil
	}

	decoded := DecodeManchester(bits)
	if len(decoded) != width {
		return bits, EncodingRaw, errors.Wrapf(ErrManchesterWidth, "decoded %d bits, expected %d", len(decoded), width)
	}

	return decoded, EncodingManchester, nil
}
