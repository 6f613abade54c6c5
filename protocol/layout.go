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
	"io"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/bemasher/rtlfob/parse"
)

// A Field is the bit range [Start, Start+Length) of a payload.
type Field struct {
	Name   string `yaml:"name" json:"name"`
	Start  int    `yaml:"start" json:"start"`
	Length int    `yaml:"length" json:"length"`
}

// A Layout splits payloads of a fixed width into named fields. Layouts are
// heuristics for known rolling-code families, not verified protocol
// parsers.
type Layout struct {
	Name   string  `yaml:"name" json:"name"`
	Width  int     `yaml:"width" json:"width"`
	Fields []Field `yaml:"fields" json:"fields"`
}

// Validate checks every field lies within the layout's width.
func (l Layout) Validate() error {
	if l.Name == "" {
		return errors.New("layout has no name")
	}
	if l.Width <= 0 {
		return errors.Errorf("layout %s: invalid width %d", l.Name, l.Width)
	}
	for _, f := range l.Fields {
		if f.Start < 0 || f.Length <= 0 || f.Start+f.Length > l.Width {
			return errors.Errorf("layout %s: field %s [%d,%d) outside width %d",
				l.Name, f.Name, f.Start, f.Start+f.Length, l.Width,
			)
		}
	}
	return nil
}

// A FieldValue is a field sliced from a payload.
type FieldValue struct {
	Name  string          `json:"name"`
	Bits  parse.Bitstream `json:"bits"`
	Value uint64          `json:"value"`
}

func (fv FieldValue) String() string {
	return fmt.Sprintf("%s:%s(0x%X)", fv.Name, fv.Bits, fv.Value)
}

// Apply slices payload into the layout's fields.
func (l Layout) Apply(payload parse.Bitstream) ([]FieldValue, error) {
	if len(payload) != l.Width {
		return nil, errors.Wrapf(ErrLengthMismatch, "layout %s expects %d bits, got %d", l.Name, l.Width, len(payload))
	}

	values := make([]FieldValue, len(l.Fields))
	for idx, f := range l.Fields {
		bits := payload[f.Start : f.Start+f.Length]
		values[idx] = FieldValue{Name: f.Name, Bits: bits, Value: bits.Uint64()}
	}
	return values, nil
}

var (
	layoutMutex sync.Mutex
	layouts     = make(map[string]Layout)
)

// Register makes a layout available by name. Packages register their
// layouts from init:
//
//	import _ "github.com/bemasher/rtlfob/keeloq"
//
// Register panics on invalid or duplicate layouts.
func Register(l Layout) {
	if err := RegisterLayout(l); err != nil {
		panic(fmt.Sprintf("layout: %s", err))
	}
}

// RegisterLayout is Register for layouts loaded at runtime.
func RegisterLayout(l Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}

	layoutMutex.Lock()
	defer layoutMutex.Unlock()

	if _, dup := layouts[l.Name]; dup {
		return errors.Errorf("layout already registered (%s)", l.Name)
	}
	layouts[l.Name] = l
	return nil
}

// Lookup returns the layout registered under name.
func Lookup(name string) (Layout, error) {
	layoutMutex.Lock()
	defer layoutMutex.Unlock()

	if l, exists := layouts[name]; exists {
		return l, nil
	}
	return Layout{}, errors.Errorf("unknown layout: %q", name)
}

// ForWidth returns registered layouts of the given width ordered by name.
func ForWidth(width int) (matching []Layout) {
	layoutMutex.Lock()
	defer layoutMutex.Unlock()

	for _, l := range layouts {
		if l.Width == width {
			matching = append(matching, l)
		}
	}
	sort.Slice(matching, func(i, j int) bool {
		return matching[i].Name < matching[j].Name
	})
	return
}

// LoadLayouts decodes a YAML list of layouts and validates each.
func LoadLayouts(r io.Reader) ([]Layout, error) {
	var loaded []Layout
	if err := yaml.NewDecoder(r).Decode(&loaded); err != nil {
		return nil, errors.Wrap(err, "decoding layouts")
	}
	for _, l := range loaded {
		if err := l.Validate(); err != nil {
			return nil, err
		}
	}
	return loaded, nil
}
