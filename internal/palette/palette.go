/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package palette

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"sort"
	"strconv"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

// DefaultName is the palette used when none is configured.
const DefaultName = "colorbrewer:Dark2"

var (
	ErrUnknownPalette = errors.New("palette: unknown palette")
	ErrInvalidFile    = errors.New("palette: invalid palette file")
)

//go:embed palette.schema.json
var schemaJSON []byte

var named = map[string][]string{
	"colorbrewer:Dark2": {"#1b9e77", "#d95f02", "#7570b3", "#e7298a", "#66a61e", "#e6ab02", "#a6761d", "#666666"},
	"colorbrewer:Set1":  {"#e41a1c", "#377eb8", "#4daf4a", "#984ea3", "#ff7f00", "#ffff33", "#a65628", "#f781bf", "#999999"},
	"tableau:10":        {"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf"},
}

// ColorSequencer allocates measurement colors.
type ColorSequencer = Sequencer[color.RGBA]

// NewColorSequencer returns a sequencer over the named palette.
func NewColorSequencer(name string) (*ColorSequencer, error) {
	cols, err := Named(name)
	if err != nil {
		return nil, err
	}
	return NewSequencer(cols), nil
}

// Names lists the built-in palettes, sorted.
func Names() []string {
	out := make([]string, 0, len(named))
	for k := range named {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Named returns the colors of a built-in palette. An empty name selects
// DefaultName.
func Named(name string) ([]color.RGBA, error) {
	if name == "" {
		name = DefaultName
	}
	hex, ok := named[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPalette, name)
	}
	out := make([]color.RGBA, len(hex))
	for i, h := range hex {
		c, err := ParseHex(h)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// File is the on-disk palette document.
type File struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Colors      []string `json:"colors"`
}

// Validate checks raw JSON against the palette schema.
func Validate(data []byte) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidFile, strings.Join(msgs, "; "))
	}
	return nil
}

// Load reads and validates a palette file and returns its name and colors.
func Load(path string) (string, []color.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	if err := Validate(data); err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}
	cols := make([]color.RGBA, len(f.Colors))
	for i, h := range f.Colors {
		if cols[i], err = ParseHex(h); err != nil {
			return "", nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return f.Name, cols, nil
}

// Resolve returns the colors for a configured palette: a file path wins over
// a name.
func Resolve(name, file string) ([]color.RGBA, error) {
	if file != "" {
		_, cols, err := Load(file)
		return cols, err
	}
	return Named(name)
}

// ParseHex parses #rrggbb or #rrggbbaa.
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("palette: bad color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("palette: bad color %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Hex formats c as #rrggbb, or #rrggbbaa when not opaque.
func Hex(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
