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
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/bemasher/rtlfob/parse"
)

// Options control structure analysis.
type Options struct {
	// Layout names the field layout to apply. Empty selects the first
	// registered layout matching the payload width, if any.
	Layout string
}

// Analysis is the outcome of comparing payloads from several presses.
// Skipped analyses carry the reason instead of a mask.
type Analysis struct {
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`

	Payloads int         `json:"payloads"`
	Width    int         `json:"width"`
	Mask     PayloadMask `json:"mask"`

	Layout string       `json:"layout,omitempty"`
	Fields []FieldValue `json:"fields,omitempty"`
}

// Analyze compares payloads and, when a layout fits, splits the first
// payload into fields. Too few or unequal payloads give a skipped analysis
// rather than an error; only an unknown layout name is an error.
func Analyze(payloads []parse.Bitstream, opts Options) (Analysis, error) {
	a := Analysis{Payloads: len(payloads)}

	mask, err := Compare(payloads)
	if err != nil {
		cause := errors.Cause(err)
		if cause == ErrTooFewPayloads || cause == ErrLengthMismatch {
			a.Skipped = true
			a.Reason = err.Error()
			return a, nil
		}
		return a, err
	}
	a.Mask = mask
	a.Width = mask.Width()

	var layout Layout
	if opts.Layout != "" {
		layout, err = Lookup(opts.Layout)
		if err != nil {
			return a, err
		}
	} else if candidates := ForWidth(a.Width); len(candidates) > 0 {
		layout = candidates[0]
	} else {
		return a, nil
	}

	fields, err := layout.Apply(payloads[0])
	if err != nil {
		// A layout that doesn't fit is a heuristic miss, not a failure.
		a.Reason = err.Error()
		return a, nil
	}

	a.Layout = layout.Name
	a.Fields = fields

	return a, nil
}

func (a Analysis) String() string {
	if a.Skipped {
		return fmt.Sprintf("{Skipped:%q}", a.Reason)
	}

	var fields []string
	for _, f := range a.Fields {
		fields = append(fields, f.String())
	}

	return fmt.Sprintf("{Payloads:%d Width:%d Fixed:%s Changing:%s Layout:%s Fields:[%s]}",
		a.Payloads, a.Width, a.Mask.Fixed.Hex(), a.Mask.Changing.Hex(), a.Layout, strings.Join(fields, " "),
	)
}
