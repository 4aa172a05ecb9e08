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
	"reflect"
	"testing"
	"time"

	"cubeview/internal/domain"
	"cubeview/internal/geometry"
	"cubeview/internal/interaction"
	"cubeview/internal/processing"
)

func TestPixelClickCreatesPointMeasurement(t *testing.T) {
	r := newRig(t, rigOptions{})
	r.click(12.4, 7.9, interaction.ModNone)

	ms := r.meas.Measurements()
	if len(ms) != 1 {
		t.Fatalf("cache size = %d, want 1", len(ms))
	}
	m := ms[0]
	if m.Kind != domain.KindPoint || m.Centroid != (geometry.Pixel{X: 12, Y: 7}) || m.Pixels != nil {
		t.Fatalf("unexpected measurement %+v", m)
	}
	if m.Color != dark2(0) || m.Name != "Measurement1" {
		t.Fatalf("color %v name %q", m.Color, m.Name)
	}
	want, _ := r.cube.Spectrum(12, 7)
	if !reflect.DeepEqual(m.Values, want) {
		t.Fatalf("values %v, want %v", m.Values, want)
	}
	// Marker in the linked image view and in both followers, same id.
	if pts := r.img.Points(); len(pts) != 1 || pts[0].ID != m.ID || pts[0].Color != m.Color {
		t.Fatalf("image markers %+v", pts)
	}
	if pts := r.imgF.Points(); len(pts) != 1 || pts[0].ID != m.ID {
		t.Fatalf("follower image markers %+v", pts)
	}
	if fm := r.measF.Measurements(); len(fm) != 1 || !reflect.DeepEqual(fm[0], m) {
		t.Fatalf("follower measurements %+v", fm)
	}

	r.click(12.4, 7.9, interaction.ModNone)
	ms = r.meas.Measurements()
	if len(ms) != 2 || ms[1].ID == ms[0].ID || ms[1].Color != dark2(1) {
		t.Fatalf("second click: %+v", ms)
	}
	if n, p := r.state.Model.Counts(); n != 2 || p != 2 {
		t.Fatalf("model counters = %d/%d, want 2/2", n, p)
	}
}

func TestClickOutsideRasterIgnored(t *testing.T) {
	r := newRig(t, rigOptions{})
	r.click(40, 3, interaction.ModNone)
	r.click(-0.5, 3, interaction.ModNone)
	if r.meas.Len() != 0 {
		t.Fatalf("out-of-raster clicks created %d measurements", r.meas.Len())
	}
}

func TestLassoSquareCreatesGroup(t *testing.T) {
	r := newRig(t, rigOptions{})
	r.square(0, 0, 4)

	if len(r.selected) != 1 {
		t.Fatalf("regions selected = %d, diags %v", len(r.selected), r.diags)
	}
	ev := r.selected[0]
	if len(ev.Pixels) != 16 || len(ev.Vertices) != 4 {
		t.Fatalf("pixels %d vertices %v", len(ev.Pixels), ev.Vertices)
	}
	for _, p := range ev.Pixels {
		if p.X < 0 || p.X >= 4 || p.Y < 0 || p.Y >= 4 {
			t.Fatalf("pixel %v outside the square", p)
		}
	}
	ms := r.meas.Measurements()
	if len(ms) != 1 || ms[0].ID != ev.ID || ms[0].Kind != domain.KindGroup || len(ms[0].Pixels) != 16 {
		t.Fatalf("group measurement %+v", ms)
	}
	if ms[0].Centroid != (geometry.Pixel{X: 1, Y: 1}) || len(ms[0].Std) != len(ms[0].Values) {
		t.Fatalf("centroid %v std %v", ms[0].Centroid, ms[0].Std)
	}
	polys := r.img.Polygons()
	if len(polys) != 1 || polys[0].Color != ms[0].Color {
		t.Fatalf("polygon not colored by its measurement: %+v", polys)
	}
	if r.overlay.colors[ev.ID] != ms[0].Color {
		t.Fatalf("overlay polygon color %v", r.overlay.colors[ev.ID])
	}
	if fp := r.imgF.Polygons(); len(fp) != 1 || fp[0].ID != ev.ID || fp[0].Color != ms[0].Color {
		t.Fatalf("follower polygons %+v", fp)
	}
	if r.img.Mode() != interaction.Collect {
		t.Fatalf("mode after lasso = %s", r.img.Mode())
	}
}

func TestDegenerateLassoCreatesNothing(t *testing.T) {
	r := newRig(t, rigOptions{})
	r.click(3, 3, interaction.ModCtrl)
	r.img.PointerMove(geometry.Pt{X: 3, Y: 3})
	r.doubleClick(3, 3, interaction.ModCtrl)
	if r.meas.Len() != 0 || len(r.img.Polygons()) != 0 {
		t.Fatalf("degenerate lasso produced entities")
	}
	if len(r.diags) != 1 || !errors.Is(r.diags[0].Err, geometry.ErrDegenerateRegion) {
		t.Fatalf("diagnostics %v", r.diags)
	}
	if r.img.Mode() != interaction.Collect {
		t.Fatalf("mode = %s", r.img.Mode())
	}
}

func TestLassoWithDetachedTipKeepsMainRegion(t *testing.T) {
	r := newRig(t, rigOptions{})
	// A 6x6 body with a cap hanging off a neck too thin to cover a pixel
	// centre: the cap's pixels are inside but not connected to the body.
	r.lasso(
		geometry.Pt{X: 0, Y: 0}, geometry.Pt{X: 6, Y: 0}, geometry.Pt{X: 6, Y: 6},
		geometry.Pt{X: 3.9, Y: 6}, geometry.Pt{X: 3.9, Y: 7}, geometry.Pt{X: 5, Y: 7},
		geometry.Pt{X: 5, Y: 8}, geometry.Pt{X: 2, Y: 8}, geometry.Pt{X: 2, Y: 7},
		geometry.Pt{X: 3.6, Y: 7}, geometry.Pt{X: 3.6, Y: 6}, geometry.Pt{X: 0, Y: 6},
	)
	ms := r.meas.Measurements()
	if len(ms) != 1 || ms[0].Kind != domain.KindGroup || len(ms[0].Pixels) != 36 {
		t.Fatalf("measurements %+v", ms)
	}
	for _, p := range ms[0].Pixels {
		if p.Y > 5 {
			t.Fatalf("detached pixel %v kept", p)
		}
	}
	if len(r.diags) != 1 || !errors.Is(r.diags[0].Err, geometry.ErrRegionTrimmed) {
		t.Fatalf("diagnostics %v", r.diags)
	}
}

func TestLassoRejectedWhileLineInFlight(t *testing.T) {
	r := newRig(t, rigOptions{})
	r.click(1, 1, interaction.ModAlt)
	if r.img.Mode() != interaction.Line {
		t.Fatalf("mode = %s, want line", r.img.Mode())
	}
	r.click(5, 5, interaction.ModCtrl)
	if r.img.Mode() != interaction.Line {
		t.Fatalf("lasso start changed mode to %s", r.img.Mode())
	}
	if len(r.diags) != 1 || !errors.Is(r.diags[0].Err, interaction.ErrGestureInFlight) {
		t.Fatalf("diagnostics %v", r.diags)
	}
	// Plain clicks while drawing select nothing.
	r.click(2, 2, interaction.ModNone)
	if r.meas.Len() != 0 {
		t.Fatalf("click during line created a measurement")
	}
	r.img.PointerMove(geometry.Pt{X: 6.5, Y: 3.2})
	r.click(6.5, 3.2, interaction.ModAlt)
	if r.img.Mode() != interaction.Collect {
		t.Fatalf("mode after finishing line = %s", r.img.Mode())
	}
	if len(r.traces) != 1 {
		t.Fatalf("traces = %d, want 1", len(r.traces))
	}
	tr := r.traces[0]
	if tr.Line.Start != (geometry.Pixel{X: 1, Y: 1}) || tr.Line.End != (geometry.Pixel{X: 6, Y: 3}) {
		t.Fatalf("line endpoints %v %v", tr.Line.Start, tr.Line.End)
	}
	if len(tr.Spectra) != 6 || len(tr.Line.Pixels) != 6 {
		t.Fatalf("trace has %d spectra over %d pixels", len(tr.Spectra), len(tr.Line.Pixels))
	}
	if r.meas.Len() != 0 {
		t.Fatalf("line trace must not be cached")
	}
}

func TestFinishAndCancelGesture(t *testing.T) {
	r := newRig(t, rigOptions{})
	if err := r.img.FinishGesture(); !errors.Is(err, interaction.ErrNotDrawing) {
		t.Fatalf("expected ErrNotDrawing, got %v", err)
	}
	r.click(0, 0, interaction.ModCtrl)
	r.img.PointerMove(geometry.Pt{X: 5, Y: 0})
	r.img.CancelGesture()
	if r.img.Mode() != interaction.Collect || len(r.img.Polygons()) != 0 {
		t.Fatalf("cancel left state behind")
	}
	r.click(0, 0, interaction.ModCtrl)
	for _, p := range []geometry.Pt{{X: 3, Y: 0}, {X: 3, Y: 3}, {X: 0, Y: 3}} {
		r.img.PointerMove(p)
	}
	if err := r.img.FinishGesture(); err != nil {
		t.Fatalf("FinishGesture: %v", err)
	}
	if r.meas.Len() != 1 {
		t.Fatalf("explicit finish did not create a measurement")
	}
}

func TestCapacityPolicy(t *testing.T) {
	r := newRig(t, rigOptions{})
	for i := 0; i < DefaultMaxPlots; i++ {
		r.click(float64(i), 1, interaction.ModNone)
	}
	if r.meas.Len() != 8 || len(r.notices) != 0 {
		t.Fatalf("len %d notices %v", r.meas.Len(), r.notices)
	}
	r.click(20, 20, interaction.ModNone)
	if r.meas.Len() != 8 || len(r.img.Points()) != 8 {
		t.Fatalf("add past cap was not rejected")
	}
	if len(r.notices) != 1 || r.notices[0].Kind != CapacityReached {
		t.Fatalf("notices %v", r.notices)
	}
	if _, err := r.meas.AddPoint(geometry.Pixel{X: 1, Y: 1}); !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}
	// A lasso at capacity leaves no orphan polygon anywhere.
	r.square(10, 10, 4)
	if len(r.img.Polygons()) != 0 || len(r.imgF.Polygons()) != 0 {
		t.Fatalf("orphan polygon kept after rejected group")
	}
	if len(r.diags) != 0 {
		t.Fatalf("capacity must not surface as a diagnostic: %v", r.diags)
	}
}

func TestPaletteExhaustionWarns(t *testing.T) {
	pal := []color.RGBA{{1, 0, 0, 255}, {0, 1, 0, 255}}
	r := newRig(t, rigOptions{palette: pal})
	for i := 0; i < 3; i++ {
		r.click(float64(i), 0, interaction.ModNone)
	}
	ms := r.meas.Measurements()
	if len(ms) != 3 || ms[2].Color != pal[1] {
		t.Fatalf("third color = %v", ms[2].Color)
	}
	if len(r.notices) != 1 || r.notices[0].Kind != PaletteExhausted {
		t.Fatalf("notices %v", r.notices)
	}
	// Removing the measurement that reused the last color frees nothing.
	if err := r.meas.Remove(ms[2].ID); err != nil {
		t.Fatal(err)
	}
	r.click(5, 0, interaction.ModNone)
	if len(r.notices) != 2 {
		t.Fatalf("expected a second exhaustion notice, got %v", r.notices)
	}
}

func TestRemoveMeasurementRemovesMarkerAndPolygon(t *testing.T) {
	r := newRig(t, rigOptions{palette: []color.RGBA{dark2(0), dark2(1), dark2(2)}})
	r.click(2, 2, interaction.ModNone)
	r.square(10, 10, 3)
	ms := r.meas.Measurements()
	if len(ms) != 2 {
		t.Fatalf("setup: %d measurements", len(ms))
	}
	group := ms[1]
	if err := r.meas.Remove(group.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(r.img.Polygons()) != 0 || len(r.img.Points()) != 1 {
		t.Fatalf("image still holds %d polygons, %d points", len(r.img.Polygons()), len(r.img.Points()))
	}
	if _, ok := r.overlay.shapes[group.ID]; ok {
		t.Fatalf("overlay still draws the removed region")
	}
	if len(r.imgF.Polygons()) != 0 || len(r.measF.Measurements()) != 1 {
		t.Fatalf("followers not updated")
	}
	if err := r.meas.Remove(group.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// Fresh colors come first; the freed one is reclaimed once the palette
	// runs out.
	r.click(4, 4, interaction.ModNone)
	r.click(5, 4, interaction.ModNone)
	ms = r.meas.Measurements()
	if got := []color.RGBA{ms[1].Color, ms[2].Color}; got[0] != dark2(2) || got[1] != dark2(1) {
		t.Fatalf("colors after remove = %v", got)
	}
}

func TestFreedColorWaitsForFreshOnes(t *testing.T) {
	r := newRig(t, rigOptions{})
	r.click(2, 2, interaction.ModNone)
	r.click(3, 2, interaction.ModNone)
	if err := r.meas.Remove(r.meas.Measurements()[1].ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	r.click(4, 2, interaction.ModNone)
	r.click(5, 2, interaction.ModNone)
	ms := r.meas.Measurements()
	if got := []color.RGBA{ms[1].Color, ms[2].Color}; got[0] != dark2(2) || got[1] != dark2(3) {
		t.Fatalf("colors after remove = %v", got)
	}
}

func TestQuickClicksOfDifferentKindsBothCount(t *testing.T) {
	r := newRig(t, rigOptions{})
	r.press(3, 3, interaction.ModNone)
	r.sched.Advance(50 * time.Millisecond)
	r.press(20, 20, interaction.ModCtrl)
	if r.meas.Len() != 1 {
		t.Fatalf("plain click lost to the ctrl press: %d measurements", r.meas.Len())
	}
	r.sched.Advance(time.Second)
	if r.img.Mode() != interaction.Lasso {
		t.Fatalf("ctrl press did not start a lasso, mode %s", r.img.Mode())
	}
	r.img.CancelGesture()

	r.press(3, 3, interaction.ModNone)
	r.sched.Advance(50 * time.Millisecond)
	r.press(25, 25, interaction.ModNone)
	r.sched.Advance(time.Second)
	ms := r.meas.Measurements()
	if len(ms) != 3 || ms[1].Centroid != (geometry.Pixel{X: 3, Y: 3}) || ms[2].Centroid != (geometry.Pixel{X: 25, Y: 25}) {
		t.Fatalf("quick clicks on different pixels: %+v", ms)
	}
}

func TestResetCascades(t *testing.T) {
	r := newRig(t, rigOptions{})
	r.click(2, 2, interaction.ModNone)
	r.square(10, 10, 3)
	clears := r.overlay.clears
	if err := r.meas.ResetCache(); err != nil {
		t.Fatalf("ResetCache: %v", err)
	}
	for name, n := range map[string]int{
		"meas":          r.meas.Len(),
		"meas follower": r.measF.Len(),
		"points":        len(r.img.Points()),
		"polygons":      len(r.img.Polygons()),
		"follower pts":  len(r.imgF.Points()),
		"follower poly": len(r.imgF.Polygons()),
		"plotted":       r.meas.Plotted(),
		"plotted f":     r.measF.Plotted(),
		"pulled":        r.meas.Palette().Pulled(),
	} {
		if n != 0 {
			t.Fatalf("%s = %d after reset", name, n)
		}
	}
	if a, b := r.state.Model.Counts(); a != 0 || b != 0 {
		t.Fatalf("model counters %d/%d", a, b)
	}
	if r.overlay.clears <= clears {
		t.Fatalf("overlay not cleared")
	}
	r.click(1, 1, interaction.ModNone)
	if ms := r.meas.Measurements(); ms[0].Color != dark2(0) || ms[0].Name != "Measurement1" {
		t.Fatalf("counters not zeroed: %+v", ms[0])
	}
}

func TestRenameMirrors(t *testing.T) {
	r := newRig(t, rigOptions{})
	r.click(2, 2, interaction.ModNone)
	id := r.meas.Measurements()[0].ID
	if err := r.meas.Rename(id, "olivine"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if m, _ := r.measF.Get(id); m.Name != "olivine" {
		t.Fatalf("follower name %q", m.Name)
	}
	if err := r.meas.Rename(domain.NewID(), "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProcessMeasurement(t *testing.T) {
	r := newRig(t, rigOptions{})
	r.click(2, 2, interaction.ModNone)
	m := r.meas.Measurements()[0]
	out, err := r.meas.Process(m.ID, []processing.Flag{{Step: processing.ContinuumRemoval}})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out.Y) != len(m.Values) {
		t.Fatalf("processed length %d", len(out.Y))
	}
	for _, v := range out.Y {
		if v > 1+1e-9 {
			t.Fatalf("continuum-removed value above 1: %v", out.Y)
		}
	}
	if again, _ := r.meas.Get(m.ID); !reflect.DeepEqual(again.Values, m.Values) {
		t.Fatalf("Process modified the cache")
	}
}

func TestImageSizeMismatch(t *testing.T) {
	state := NewAppState("")
	sched := &interaction.ManualScheduler{}
	if _, err := NewImageController("a", state, ImageOptions{Bounds: image.Rect(0, 0, 10, 10), Scheduler: sched}); err != nil {
		t.Fatalf("first view: %v", err)
	}
	if _, err := NewImageController("b", state, ImageOptions{Bounds: image.Rect(0, 0, 10, 12), Scheduler: sched}); !errors.Is(err, ErrImageSizeMismatch) {
		t.Fatalf("expected ErrImageSizeMismatch, got %v", err)
	}
	if _, err := NewImageController("c", state, ImageOptions{}); !errors.Is(err, ErrNoRaster) {
		t.Fatalf("expected ErrNoRaster, got %v", err)
	}
	if _, err := NewImageController("d", state, ImageOptions{Bounds: image.Rect(0, 0, 10, 10)}); !errors.Is(err, ErrNoScheduler) {
		t.Fatalf("expected ErrNoScheduler, got %v", err)
	}
	if _, err := NewMeasurementController("m", state, MeasurementOptions{}); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}
