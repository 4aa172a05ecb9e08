/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the selection entities shared by image and measurement
// views. Entities serialize to JSON for the event journal.

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/google/uuid"

	"cubeview/internal/geometry"
)

// NewID returns a fresh entity id.
func NewID() uuid.UUID { return uuid.New() }

// Kind tags a measurement as a single pixel or an aggregated region.
type Kind int

const (
	KindPoint Kind = iota
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindGroup:
		return "group"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "point":
		*k = KindPoint
	case "group":
		*k = KindGroup
	default:
		return fmt.Errorf("domain: unknown measurement kind %q", b)
	}
	return nil
}

// ImagePoint is a pixel marker in an image view.
type ImagePoint struct {
	ID    uuid.UUID      `json:"id"`
	View  string         `json:"view"`
	Pixel geometry.Pixel `json:"pixel"`
	Pos   geometry.Pt    `json:"pos"`
	Color color.RGBA     `json:"color"`
}

// ImagePolygon is a finished lasso region. Path holds the raw samples,
// Vertices the grid-following boundary, Pixels the resolved interior.
type ImagePolygon struct {
	ID       uuid.UUID        `json:"id"`
	View     string           `json:"view"`
	Vertices []geometry.Pt    `json:"vertices"`
	Pixels   []geometry.Pixel `json:"pixels"`
	Path     []geometry.Pt    `json:"path,omitempty"`
	Color    color.RGBA       `json:"color"`
}

func (p ImagePolygon) Clone() ImagePolygon {
	p.Vertices = append([]geometry.Pt(nil), p.Vertices...)
	p.Pixels = append([]geometry.Pixel(nil), p.Pixels...)
	p.Path = append([]geometry.Pt(nil), p.Path...)
	return p
}

// Measurement is a cached sample of the per-pixel value vector. Group
// measurements carry their member pixels and per-band standard deviation;
// point measurements carry neither.
type Measurement struct {
	ID       uuid.UUID        `json:"id"`
	Kind     Kind             `json:"kind"`
	Name     string           `json:"name"`
	Values   []float64        `json:"values"`
	Labels   []float64        `json:"labels,omitempty"`
	Std      []float64        `json:"std,omitempty"`
	Centroid geometry.Pixel   `json:"centroid"`
	Pixels   []geometry.Pixel `json:"pixels"`
	Color    color.RGBA       `json:"color"`
}

var ErrInvalidMeasurement = errors.New("domain: invalid measurement")

// Validate checks the kind-specific shape rules.
func (m Measurement) Validate() error {
	switch m.Kind {
	case KindPoint:
		if m.Pixels != nil || m.Std != nil {
			return fmt.Errorf("%w: point %s carries group data", ErrInvalidMeasurement, m.ID)
		}
	case KindGroup:
		if m.Pixels == nil {
			return fmt.Errorf("%w: group %s has no pixels", ErrInvalidMeasurement, m.ID)
		}
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidMeasurement, int(m.Kind))
	}
	if m.Labels != nil && len(m.Labels) != len(m.Values) {
		return fmt.Errorf("%w: %d labels for %d values", ErrInvalidMeasurement, len(m.Labels), len(m.Values))
	}
	return nil
}

// Clone deep-copies the slices so follower caches never share storage with
// the leader. Nil slices stay nil.
func (m Measurement) Clone() Measurement {
	m.Values = cloneSlice(m.Values)
	m.Labels = cloneSlice(m.Labels)
	m.Std = cloneSlice(m.Std)
	m.Pixels = cloneSlice(m.Pixels)
	return m
}

// LineProfile is the ordered pixel path of a line selection.
type LineProfile struct {
	ID     uuid.UUID        `json:"id"`
	View   string           `json:"view"`
	Start  geometry.Pixel   `json:"start"`
	End    geometry.Pixel   `json:"end"`
	Pixels []geometry.Pixel `json:"pixels"`
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
