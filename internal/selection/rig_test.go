/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import (
	"image/color"
	"testing"
	"time"

	"github.com/google/uuid"

	"cubeview/internal/cube"
	"cubeview/internal/geometry"
	"cubeview/internal/interaction"
)

// recOverlay records the shapes currently drawn per id.
type recOverlay struct {
	shapes map[uuid.UUID][]string
	colors map[uuid.UUID]color.RGBA
	clears int
}

func newRecOverlay() *recOverlay {
	return &recOverlay{shapes: map[uuid.UUID][]string{}, colors: map[uuid.UUID]color.RGBA{}}
}

func (o *recOverlay) DrawPoint(id uuid.UUID, _ geometry.Pt, c color.RGBA) {
	o.shapes[id] = append(o.shapes[id], "point")
}

func (o *recOverlay) DrawPolygon(id uuid.UUID, _ []geometry.Pt, c color.RGBA) {
	o.shapes[id] = append(o.shapes[id], "polygon")
	o.colors[id] = c
}

func (o *recOverlay) DrawLine(id uuid.UUID, _ []geometry.Pixel, _ color.RGBA) {
	o.shapes[id] = append(o.shapes[id], "line")
}

func (o *recOverlay) Erase(id uuid.UUID) { delete(o.shapes, id) }

func (o *recOverlay) Clear() {
	o.shapes = map[uuid.UUID][]string{}
	o.clears++
}

// rig is a window with a linked image/measurement pair, each with one
// follower.
type rig struct {
	t        *testing.T
	state    *AppState
	cube     *cube.Cube
	sched    *interaction.ManualScheduler
	coord    *Coordinator
	img      *ImageController
	imgF     *ImageController
	meas     *MeasurementController
	measF    *MeasurementController
	overlay  *recOverlay
	diags    []Diagnostic
	notices  []Notice
	traces   []Trace
	selected []RegionSelected
}

type rigOptions struct {
	palette  []color.RGBA
	maxPlots int
}

func newRig(t *testing.T, opts rigOptions) *rig {
	t.Helper()
	r := &rig{
		t:       t,
		state:   NewAppState(t.TempDir()),
		cube:    cube.Synthetic(32, 32, 6),
		sched:   &interaction.ManualScheduler{},
		coord:   NewCoordinator(),
		overlay: newRecOverlay(),
	}
	mkImage := func(name string, ov Overlay) *ImageController {
		ic, err := NewImageController(name, r.state, ImageOptions{
			Bounds:      r.cube.Bounds(),
			Overlay:     ov,
			Scheduler:   r.sched,
			DoubleClick: 200 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("NewImageController(%s): %v", name, err)
		}
		if err := r.coord.AddImage(ic); err != nil {
			t.Fatalf("AddImage: %v", err)
		}
		return ic
	}
	mkMeas := func(name string) *MeasurementController {
		mc, err := NewMeasurementController(name, r.state, MeasurementOptions{
			Source:   r.cube,
			Palette:  opts.palette,
			MaxPlots: opts.maxPlots,
		})
		if err != nil {
			t.Fatalf("NewMeasurementController(%s): %v", name, err)
		}
		if err := r.coord.AddMeasurement(mc); err != nil {
			t.Fatalf("AddMeasurement: %v", err)
		}
		return mc
	}
	r.img = mkImage("image", r.overlay)
	r.imgF = mkImage("image-follower", nil)
	r.meas = mkMeas("spectra")
	r.measF = mkMeas("spectra-follower")
	if _, err := r.coord.Link("image", "spectra"); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if err := r.coord.FollowImage("image", "image-follower"); err != nil {
		t.Fatalf("FollowImage: %v", err)
	}
	if err := r.coord.FollowMeasurement("spectra", "spectra-follower"); err != nil {
		t.Fatalf("FollowMeasurement: %v", err)
	}
	r.img.Events().Diagnostics.Subscribe(func(d Diagnostic) { r.diags = append(r.diags, d) })
	r.img.Events().RegionSelected.Subscribe(func(ev RegionSelected) { r.selected = append(r.selected, ev) })
	r.meas.Events().Notices.Subscribe(func(n Notice) { r.notices = append(r.notices, n) })
	r.meas.Events().Traced.Subscribe(func(tr Trace) { r.traces = append(r.traces, tr) })
	t.Cleanup(r.coord.Close)
	return r
}

func (r *rig) press(x, y float64, mods interaction.Modifier) {
	r.img.PointerDown(interaction.PointerEvent{Pos: geometry.Pt{X: x, Y: y}, Button: interaction.ButtonLeft, Mods: mods})
}

// click is a single click that is allowed to resolve.
func (r *rig) click(x, y float64, mods interaction.Modifier) {
	r.press(x, y, mods)
	r.sched.Advance(time.Second)
}

// doubleClick is two presses inside the double-click window.
func (r *rig) doubleClick(x, y float64, mods interaction.Modifier) {
	r.press(x, y, mods)
	r.sched.Advance(50 * time.Millisecond)
	r.press(x, y, mods)
	r.sched.Advance(time.Second)
}

func (r *rig) lasso(pts ...geometry.Pt) {
	r.click(pts[0].X, pts[0].Y, interaction.ModCtrl)
	for _, p := range pts[1:] {
		r.img.PointerMove(p)
	}
	r.doubleClick(pts[len(pts)-1].X, pts[len(pts)-1].Y, interaction.ModCtrl)
}

func (r *rig) square(x0, y0, side float64) {
	r.lasso(geometry.Pt{X: x0, Y: y0}, geometry.Pt{X: x0 + side, Y: y0}, geometry.Pt{X: x0 + side, Y: y0 + side}, geometry.Pt{X: x0, Y: y0 + side})
}

func dark2(i int) color.RGBA {
	return [...]color.RGBA{
		{0x1b, 0x9e, 0x77, 0xff},
		{0xd9, 0x5f, 0x02, 0xff},
		{0x75, 0x70, 0xb3, 0xff},
		{0xe7, 0x29, 0x8a, 0xff},
		{0x66, 0xa6, 0x1e, 0xff},
		{0xe6, 0xab, 0x02, 0xff},
		{0xa6, 0x76, 0x1d, 0xff},
		{0x66, 0x66, 0x66, 0xff},
	}[i]
}

