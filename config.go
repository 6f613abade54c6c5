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


package main

import (
	"os"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/bemasher/rtlfob/pipeline"
	"github.com/bemasher/rtlfob/protocol"
)

// FileConfig is the layout of the --config file: pipeline settings at the
// top level plus any extra field layouts.
type FileConfig struct {
	Pipeline pipeline.Config   `yaml:",inline"`
	Layouts  []protocol.Layout `yaml:"layouts"`
}

// LoadConfig decodes the yaml file at path over cfg. Keys absent from the
// file leave cfg unchanged.
func LoadConfig(path string, cfg *pipeline.Config) ([]protocol.Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening config")
	}
	defer f.Close()

	fc := FileConfig{Pipeline: *cfg}
	if err := yaml.NewDecoder(f).Decode(&fc); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}

	for _, l := range fc.Layouts {
		if err := l.Validate(); err != nil {
			return nil, errors.Wrapf(err, "config %s", path)
		}
	}

	*cfg = fc.Pipeline
	return fc.Layouts, nil
}

// LoadLayoutFile reads a yaml list of field layouts.
func LoadLayoutFile(path string) ([]protocol.Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening layouts")
	}
	defer f.Close()

	layouts, err := protocol.LoadLayouts(f)
	return layouts, errors.Wrapf(err, "layouts %s", path)
}

// BuildConfig layers the configuration: defaults, then the config file,
// then flags and their environment overrides. Layouts from either file are
// registered.
func (f *Flags) BuildConfig(fs *flag.FlagSet) (cfg pipeline.Config, err error) {
	cfg = pipeline.DefaultConfig()

	var layouts []protocol.Layout
	if f.Config != "" {
		loaded, err := LoadConfig(f.Config, &cfg)
		if err != nil {
			return cfg, err
		}
		layouts = append(layouts, loaded...)
	}

	if f.Layouts != "" {
		loaded, err := LoadLayoutFile(f.Layouts)
		if err != nil {
			return cfg, err
		}
		layouts = append(layouts, loaded...)
	}

	for _, l := range layouts {
		if err := protocol.RegisterLayout(l); err != nil {
			return cfg, err
		}
	}

	f.Apply(fs, &cfg)

	return cfg, nil
}
