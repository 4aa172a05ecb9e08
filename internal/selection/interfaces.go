/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import (
	"errors"
	"image"
	"image/color"

	"github.com/google/uuid"

	"cubeview/internal/domain"
	"cubeview/internal/geometry"
)

// ErrFollower rejects a user-originated mutation on a follower view.
var ErrFollower = errors.New("selection: view is a follower")

// Overlay is the fire-and-forget drawing surface of an image view.
type Overlay interface {
	DrawPoint(id uuid.UUID, at geometry.Pt, c color.RGBA)
	DrawPolygon(id uuid.UUID, vertices []geometry.Pt, c color.RGBA)
	DrawLine(id uuid.UUID, pixels []geometry.Pixel, c color.RGBA)
	Erase(id uuid.UUID)
	Clear()
}

type nopOverlay struct{}

func (nopOverlay) DrawPoint(uuid.UUID, geometry.Pt, color.RGBA)     {}
func (nopOverlay) DrawPolygon(uuid.UUID, []geometry.Pt, color.RGBA) {}
func (nopOverlay) DrawLine(uuid.UUID, []geometry.Pixel, color.RGBA) {}
func (nopOverlay) Erase(uuid.UUID)                                  {}
func (nopOverlay) Clear()                                           {}

// ValueSource supplies the per-pixel value vectors measurements sample.
type ValueSource interface {
	Spectrum(x, y int) ([]float64, error)
	Stats(pixels []geometry.Pixel) (mean, std []float64, err error)
	BandLabels() []float64
	Bounds() image.Rectangle
}

// Followable is a view that can be switched into follower mode.
type Followable interface {
	Name() string
	IsFollower() bool
	SetFollower(bool)
}

// RegionProducer is the image side of a link: it emits finished gestures and
// accepts markers for measurements created from them.
type RegionProducer interface {
	Followable
	Events() *ImageEvents
	PlotPoint(p domain.ImagePoint) error
	RemoveMarker(id uuid.UUID) bool
	RemovePolygon(id uuid.UUID) bool
	Diagnose(op string, err error)
}

// MeasurementCache is the measurement side of a link.
type MeasurementCache interface {
	Followable
	Events() *MeasurementEvents
	AddPoint(px geometry.Pixel) (domain.Measurement, error)
	AddGroup(id uuid.UUID, pixels []geometry.Pixel) (domain.Measurement, error)
	Trace(line domain.LineProfile) (Trace, error)
}

// ImageLeader exposes an image view's state and mutations to followers.
type ImageLeader interface {
	Followable
	Events() *ImageEvents
	Points() []domain.ImagePoint
	Polygons() []domain.ImagePolygon
}

// ImageMirror applies a leader's image mutations.
type ImageMirror interface {
	Followable
	MirrorPoint(p domain.ImagePoint)
	MirrorPolygon(p domain.ImagePolygon)
	MirrorRemovePoint(id uuid.UUID)
	MirrorRemovePolygon(id uuid.UUID)
	MirrorReset()
	MirrorCursor(at geometry.Pt)
}

// MeasurementLeader exposes a measurement view's state to followers.
type MeasurementLeader interface {
	Followable
	Events() *MeasurementEvents
	Measurements() []domain.Measurement
}

// MeasurementMirror applies a leader's measurement mutations.
type MeasurementMirror interface {
	Followable
	MirrorAdd(m domain.Measurement)
	MirrorRemove(id uuid.UUID)
	MirrorRename(id uuid.UUID, name string)
	MirrorReset()
}
