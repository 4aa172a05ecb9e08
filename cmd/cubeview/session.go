/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"time"

	"cubeview/internal/config"
	"cubeview/internal/cube"
	"cubeview/internal/geometry"
	"cubeview/internal/interaction"
	"cubeview/internal/overlay"
	"cubeview/internal/palette"
	"cubeview/internal/selection"
)

const (
	cubeW, cubeH, cubeBands = 64, 48, 32
	overlayScale            = 8
)

// scripted is a linked image/measurement pair driven by a manual clock, the
// way a host toolkit would drive it with real pointer events.
type scripted struct {
	src     *cube.Cube
	state   *selection.AppState
	coord   *selection.Coordinator
	img     *selection.ImageController
	meas    *selection.MeasurementController
	canvas  *overlay.Canvas
	sched   *interaction.ManualScheduler
	diags   []selection.Diagnostic
	notices []selection.Notice
}

func newScripted(cfg config.AppConfig) (*scripted, error) {
	cols, err := palette.Resolve(cfg.Selection.Palette, cfg.Selection.PaletteFile)
	if err != nil {
		return nil, err
	}
	s := &scripted{
		src:   cube.Synthetic(cubeW, cubeH, cubeBands),
		state: selection.NewAppState(cfg.General.BaseDir),
		coord: selection.NewCoordinator(),
		sched: &interaction.ManualScheduler{},
	}
	s.canvas = overlay.New(s.src.Bounds(), overlay.Options{Scale: overlayScale, MarkerRadius: 5, StrokeWidth: 2, FillAlpha: 0x40})
	base, err := overlay.Grayscale(s.src, cubeBands/2)
	if err != nil {
		return nil, err
	}
	s.canvas.SetBase(base)

	if s.img, err = selection.NewImageController("image", s.state, selection.ImageOptions{
		Bounds:      s.src.Bounds(),
		Overlay:     s.canvas,
		Scheduler:   s.sched,
		DoubleClick: cfg.Selection.DoubleClick(),
	}); err != nil {
		return nil, err
	}
	if s.meas, err = selection.NewMeasurementController("spectra", s.state, selection.MeasurementOptions{
		Source:   s.src,
		Palette:  cols,
		MaxPlots: cfg.Selection.MaxMeasurements,
	}); err != nil {
		return nil, err
	}
	if err := s.coord.AddImage(s.img); err != nil {
		return nil, err
	}
	if err := s.coord.AddMeasurement(s.meas); err != nil {
		return nil, err
	}
	if _, err := s.coord.Link("image", "spectra"); err != nil {
		return nil, err
	}
	s.img.Events().Diagnostics.Subscribe(func(d selection.Diagnostic) { s.diags = append(s.diags, d) })
	s.meas.Events().Notices.Subscribe(func(n selection.Notice) { s.notices = append(s.notices, n) })
	return s, nil
}

func (s *scripted) Close() { s.coord.Close() }

func (s *scripted) press(at geometry.Pt, mods interaction.Modifier) {
	s.img.PointerDown(interaction.PointerEvent{Pos: at, Button: interaction.ButtonLeft, Mods: mods})
}

// click lets the press resolve as a single click.
func (s *scripted) click(at geometry.Pt, mods interaction.Modifier) {
	s.press(at, mods)
	s.sched.Advance(time.Second)
}

func (s *scripted) doubleClick(at geometry.Pt, mods interaction.Modifier) {
	s.press(at, mods)
	s.sched.Advance(10 * time.Millisecond)
	s.press(at, mods)
	s.sched.Advance(time.Second)
}

// lasso traces pts with Ctrl held and closes with a Ctrl double click.
func (s *scripted) lasso(pts ...geometry.Pt) {
	s.click(pts[0], interaction.ModCtrl)
	for _, p := range pts[1:] {
		s.img.PointerMove(p)
	}
	s.doubleClick(pts[len(pts)-1], interaction.ModCtrl)
}

func (s *scripted) line(a, b geometry.Pt) {
	s.click(a, interaction.ModAlt)
	s.img.PointerMove(b)
	s.click(b, interaction.ModAlt)
}
