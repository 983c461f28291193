// Copyright (c) 2023 Alexander Khudich
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// preset is one named parameter bundle loadable from a presets file,
// e.g. "podcast: {speed: 1.5}". Flags explicitly passed on the command
// line always override a loaded preset's fields.
type preset struct {
	Speed     *float64 `yaml:"speed"`
	Pitch     *float64 `yaml:"pitch"`
	Rate      *float64 `yaml:"rate"`
	Volume    *float64 `yaml:"volume"`
	Quality   *bool    `yaml:"quality"`
	Chord     *bool    `yaml:"chord"`
	Nonlinear *bool    `yaml:"nonlinear"`
}

type presetFile map[string]preset

func loadPreset(path, name string) (preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return preset{}, fmt.Errorf("reading presets file: %w", err)
	}

	var pf presetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return preset{}, fmt.Errorf("parsing presets file: %w", err)
	}

	p, ok := pf[name]
	if !ok {
		return preset{}, fmt.Errorf("no preset named %q in %s", name, path)
	}
	return p, nil
}
