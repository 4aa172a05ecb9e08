/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import (
	"fmt"
	"image/color"

	"github.com/google/uuid"

	"cubeview/internal/domain"
	"cubeview/internal/geometry"
)

// PointSelected is a completed plain click on an image view.
type PointSelected struct {
	View  string
	Pixel geometry.Pixel
	Pos   geometry.Pt
}

// RegionSelected is a completed lasso. ID is the polygon's id; the linked
// measurement reuses it.
type RegionSelected struct {
	View     string
	ID       uuid.UUID
	Pixels   []geometry.Pixel
	Vertices []geometry.Pt
}

// LineSelected is a completed line gesture.
type LineSelected struct {
	View string
	Line domain.LineProfile
}

// Renamed reports a measurement name change.
type Renamed struct {
	ID   uuid.UUID
	Name string
}

// Trace holds the spectra sampled along a line selection.
type Trace struct {
	Line    domain.LineProfile
	Labels  []float64
	Spectra [][]float64
}

// Diagnostic reports a recovered gesture or geometry failure.
type Diagnostic struct {
	View string
	Op   string
	Err  error
}

func (d Diagnostic) String() string { return fmt.Sprintf("%s %s: %v", d.View, d.Op, d.Err) }

// NoticeKind classifies user-facing warnings.
type NoticeKind int

const (
	CapacityReached NoticeKind = iota
	PaletteExhausted
)

func (k NoticeKind) String() string {
	switch k {
	case CapacityReached:
		return "capacity_reached"
	case PaletteExhausted:
		return "palette_exhausted"
	}
	return fmt.Sprintf("notice(%d)", int(k))
}

// Notice is a recoverable warning meant for the user.
type Notice struct {
	View  string
	Kind  NoticeKind
	Msg   string
	Color color.RGBA
}

// ImageEvents are the streams an image view emits.
type ImageEvents struct {
	PointSelected  Stream[PointSelected]
	RegionSelected Stream[RegionSelected]
	LineSelected   Stream[LineSelected]
	CursorMoved    Stream[geometry.Pt]

	PointAdded     Stream[domain.ImagePoint]
	PointRemoved   Stream[uuid.UUID]
	PolygonAdded   Stream[domain.ImagePolygon]
	PolygonRemoved Stream[uuid.UUID]
	Reset          Stream[struct{}]
	Diagnostics    Stream[Diagnostic]
}

// MeasurementEvents are the streams a measurement view emits.
type MeasurementEvents struct {
	Added   Stream[domain.Measurement]
	Removed Stream[domain.Measurement]
	Renamed Stream[Renamed]
	Reset   Stream[struct{}]
	Notices Stream[Notice]
	Traced  Stream[Trace]
}
