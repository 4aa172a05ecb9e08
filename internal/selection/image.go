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
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cubeview/internal/domain"
	"cubeview/internal/geometry"
	"cubeview/internal/interaction"
	applog "cubeview/internal/log"
)

var (
	// DefaultRegionColor outlines a polygon until its measurement colors it.
	DefaultRegionColor = color.RGBA{R: 0x00, G: 0xff, B: 0xff, A: 0xff}
	DefaultLineColor   = color.RGBA{R: 0xff, G: 0xff, B: 0x00, A: 0xff}

	ErrNoRaster    = errors.New("selection: image view has no raster")
	ErrNoScheduler = errors.New("selection: image view has no click scheduler")
)

// previewID keys the in-progress lasso path on the overlay.
var previewID = uuid.Nil

// ImageOptions configures an ImageController.
type ImageOptions struct {
	Bounds      image.Rectangle
	Overlay     Overlay
	Scheduler   interaction.Scheduler
	DoubleClick time.Duration
	RegionColor color.RGBA
	LineColor   color.RGBA
}

// ImageController owns one image view: its drawing mode, gesture capture and
// the caches of point markers and lasso polygons.
type ImageController struct {
	name        string
	state       *AppState
	bounds      image.Rectangle
	overlay     Overlay
	regionColor color.RGBA
	lineColor   color.RGBA
	log         *slog.Logger

	machine  *interaction.Machine
	clicks   *interaction.ClickResolver
	lasso    interaction.LassoCapture
	line     interaction.LineCapture
	lastLine uuid.UUID

	points   *Cache[domain.ImagePoint]
	polygons *Cache[domain.ImagePolygon]
	follower bool
	events   ImageEvents

	stopReset func()
}

// NewImageController registers an image view on state. The raster size must
// match the size already recorded on state.
func NewImageController(name string, state *AppState, opts ImageOptions) (*ImageController, error) {
	if state == nil {
		return nil, errors.New("selection: nil app state")
	}
	if opts.Bounds.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrNoRaster, name)
	}
	if opts.Scheduler == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoScheduler, name)
	}
	if err := state.CheckImageSize(opts.Bounds.Size()); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	c := &ImageController{
		name:        name,
		state:       state,
		bounds:      opts.Bounds,
		overlay:     opts.Overlay,
		regionColor: opts.RegionColor,
		lineColor:   opts.LineColor,
		log:         applog.WithView(applog.WithComponent("selection"), name),
		machine:     interaction.NewMachine(),
		points:      NewCache(func(p domain.ImagePoint) uuid.UUID { return p.ID }),
		polygons:    NewCache(func(p domain.ImagePolygon) uuid.UUID { return p.ID }),
	}
	if c.overlay == nil {
		c.overlay = nopOverlay{}
	}
	if c.regionColor == (color.RGBA{}) {
		c.regionColor = DefaultRegionColor
	}
	if c.lineColor == (color.RGBA{}) {
		c.lineColor = DefaultLineColor
	}
	c.clicks = interaction.NewClickResolver(opts.Scheduler, opts.DoubleClick,
		func(ev interaction.PointerEvent) { c.handleClick(ev) },
		func(ev interaction.PointerEvent) { c.handleClick(ev) })
	c.stopReset = state.Model.Reset.Subscribe(func(struct{}) { c.ResetCache() })
	return c, nil
}

func (c *ImageController) Name() string             { return c.name }
func (c *ImageController) Events() *ImageEvents     { return &c.events }
func (c *ImageController) Bounds() image.Rectangle  { return c.bounds }
func (c *ImageController) Mode() interaction.Mode   { return c.machine.Mode() }
func (c *ImageController) IsFollower() bool         { return c.follower }
func (c *ImageController) SetFollower(follows bool) { c.follower = follows }

// Close detaches the controller from the shared selection model.
func (c *ImageController) Close() {
	if c.stopReset != nil {
		c.stopReset()
		c.stopReset = nil
	}
}

// PointerDown feeds a press into the click resolver. Presses on a follower
// view are refused.
func (c *ImageController) PointerDown(ev interaction.PointerEvent) {
	if c.follower {
		c.Diagnose("pointer_down", ErrFollower)
		return
	}
	c.clicks.Click(ev)
}

// DoubleClick reports a double click detected by the host toolkit.
func (c *ImageController) DoubleClick(ev interaction.PointerEvent) {
	if c.follower {
		c.Diagnose("double_click", ErrFollower)
		return
	}
	c.clicks.ConfirmDouble(ev)
}

// PointerMove extends the active gesture and reports the cursor position.
func (c *ImageController) PointerMove(at geometry.Pt) {
	switch c.machine.Mode() {
	case interaction.Lasso:
		c.lasso.Add(at)
		c.overlay.DrawPolygon(previewID, c.lasso.Samples(), c.regionColor)
	case interaction.Line:
		c.line.Move(at)
	}
	c.events.CursorMoved.Emit(at)
}

// FinishGesture completes the active lasso or line explicitly.
func (c *ImageController) FinishGesture() error {
	switch c.machine.Mode() {
	case interaction.Lasso:
		c.finishLasso()
	case interaction.Line:
		c.finishLine()
	default:
		return interaction.ErrNotDrawing
	}
	return nil
}

// CancelGesture abandons the active gesture without creating anything.
func (c *ImageController) CancelGesture() {
	if prev := c.machine.Cancel(); prev != interaction.Collect {
		c.log.Debug("gesture cancelled", slog.String("mode", prev.String()))
	}
	c.lasso.Reset()
	c.line.Reset()
	c.overlay.Erase(previewID)
}

func (c *ImageController) handleClick(ev interaction.PointerEvent) {
	switch interaction.Classify(ev) {
	case interaction.IntentPoint:
		if c.machine.Drawing() {
			return
		}
		c.selectPixel(ev.Pos)
	case interaction.IntentLasso:
		c.toggle(interaction.Lasso, ev.Pos)
	case interaction.IntentLine:
		c.toggle(interaction.Line, ev.Pos)
	}
}

func (c *ImageController) toggle(mode interaction.Mode, at geometry.Pt) {
	if c.machine.Mode() == mode {
		if err := c.FinishGesture(); err != nil {
			c.Diagnose("finish_"+mode.String(), err)
		}
		return
	}
	if err := c.machine.Begin(mode); err != nil {
		c.Diagnose("begin_"+mode.String(), err)
		return
	}
	c.log.Debug("gesture started", slog.String("mode", mode.String()))
	switch mode {
	case interaction.Lasso:
		c.lasso.Start(at)
	case interaction.Line:
		c.line.Start(at)
	}
}

func (c *ImageController) selectPixel(at geometry.Pt) {
	px := at.Pixel()
	if !image.Pt(px.X, px.Y).In(c.bounds) {
		c.log.Debug("click outside raster", slog.Int("x", px.X), slog.Int("y", px.Y))
		return
	}
	c.events.PointSelected.Emit(PointSelected{View: c.name, Pixel: px, Pos: at})
}

func (c *ImageController) finishLasso() {
	if err := c.machine.Finish(interaction.Lasso); err != nil {
		c.Diagnose("finish_lasso", err)
		return
	}
	samples := c.lasso.Finish()
	c.overlay.Erase(previewID)
	if len(samples) < 3 {
		c.Diagnose("finish_lasso", fmt.Errorf("%w: %d samples", geometry.ErrDegenerateRegion, len(samples)))
		return
	}
	pixels, dropped, err := geometry.Trim(geometry.Resolve(samples, c.bounds))
	if err != nil {
		c.Diagnose("finish_lasso", err)
		return
	}
	if dropped > 0 {
		c.log.Info("region trimmed", slog.Int("kept", len(pixels)), slog.Int("dropped", dropped))
		c.events.Diagnostics.Emit(Diagnostic{View: c.name, Op: "trim_lasso",
			Err: fmt.Errorf("%w: %d pixels outside the main region", geometry.ErrRegionTrimmed, dropped)})
	}
	vertices, err := geometry.Boundary(pixels)
	if err != nil {
		c.Diagnose("finish_lasso", fmt.Errorf("%d pixels: %w", len(pixels), err))
		return
	}
	poly := domain.ImagePolygon{
		ID:       domain.NewID(),
		View:     c.name,
		Vertices: vertices,
		Pixels:   pixels,
		Path:     samples,
		Color:    c.regionColor,
	}
	if err := c.addPolygon(poly); err != nil {
		c.Diagnose("finish_lasso", err)
		return
	}
	c.log.Info("region selected", slog.String("id", poly.ID.String()), slog.Int("pixels", len(pixels)), slog.Int("vertices", len(vertices)))
	c.events.RegionSelected.Emit(RegionSelected{View: c.name, ID: poly.ID, Pixels: poly.Pixels, Vertices: poly.Vertices})
}

func (c *ImageController) finishLine() {
	if err := c.machine.Finish(interaction.Line); err != nil {
		c.Diagnose("finish_line", err)
		return
	}
	a, b := c.line.Finish()
	a, b = c.clamp(a), c.clamp(b)
	path, err := geometry.Line(a, b)
	if err != nil {
		c.Diagnose("finish_line", err)
		return
	}
	lp := domain.LineProfile{ID: domain.NewID(), View: c.name, Start: a, End: b, Pixels: path}
	if c.lastLine != uuid.Nil {
		c.overlay.Erase(c.lastLine)
	}
	c.lastLine = lp.ID
	c.overlay.DrawLine(lp.ID, path, c.lineColor)
	c.log.Info("line selected", slog.Int("pixels", len(path)))
	c.events.LineSelected.Emit(LineSelected{View: c.name, Line: lp})
}

func (c *ImageController) clamp(p geometry.Pixel) geometry.Pixel {
	p.X = min(max(p.X, c.bounds.Min.X), c.bounds.Max.X-1)
	p.Y = min(max(p.Y, c.bounds.Min.Y), c.bounds.Max.Y-1)
	return p
}

func (c *ImageController) addPolygon(poly domain.ImagePolygon) error {
	if err := c.polygons.Add(poly); err != nil {
		return err
	}
	c.overlay.DrawPolygon(poly.ID, poly.Vertices, poly.Color)
	c.events.PolygonAdded.Emit(poly.Clone())
	return nil
}

// PlotPoint adds a marker for a measurement. A polygon with the same id takes
// the marker's color.
func (c *ImageController) PlotPoint(p domain.ImagePoint) error {
	if c.follower {
		return ErrFollower
	}
	p.View = c.name
	if err := c.points.Add(p); err != nil {
		return fmt.Errorf("%s: plot point: %w", c.name, err)
	}
	c.state.Model.ImagePointAdded()
	c.drawPoint(p)
	return nil
}

func (c *ImageController) drawPoint(p domain.ImagePoint) {
	c.overlay.DrawPoint(p.ID, p.Pixel.Center(), p.Color)
	if c.polygons.Update(p.ID, func(poly *domain.ImagePolygon) { poly.Color = p.Color }) {
		poly, _ := c.polygons.Get(p.ID)
		c.overlay.DrawPolygon(poly.ID, poly.Vertices, poly.Color)
	}
	c.events.PointAdded.Emit(p)
}

// RemoveMarker removes the point marker and polygon carrying id.
func (c *ImageController) RemoveMarker(id uuid.UUID) bool {
	removed := c.removePoint(id)
	if c.RemovePolygon(id) {
		removed = true
	}
	return removed
}

// RemovePolygon removes only the polygon carrying id.
func (c *ImageController) RemovePolygon(id uuid.UUID) bool {
	if _, ok := c.polygons.Remove(id); !ok {
		return false
	}
	c.overlay.Erase(id)
	c.events.PolygonRemoved.Emit(id)
	return true
}

func (c *ImageController) removePoint(id uuid.UUID) bool {
	if _, ok := c.points.Remove(id); !ok {
		return false
	}
	c.overlay.Erase(id)
	c.events.PointRemoved.Emit(id)
	return true
}

// ResetCache drops every marker and polygon and abandons any gesture.
func (c *ImageController) ResetCache() {
	c.CancelGesture()
	c.points.Clear()
	c.polygons.Clear()
	c.lastLine = uuid.Nil
	c.overlay.Clear()
	c.log.Info("cache reset")
	c.events.Reset.Emit(struct{}{})
}

// Points returns the cached markers in insertion order.
func (c *ImageController) Points() []domain.ImagePoint { return c.points.All() }

// Polygons returns copies of the cached polygons in insertion order.
func (c *ImageController) Polygons() []domain.ImagePolygon {
	all := c.polygons.All()
	for i := range all {
		all[i] = all[i].Clone()
	}
	return all
}

// Diagnose logs a recovered failure and emits it as a Diagnostic.
func (c *ImageController) Diagnose(op string, err error) {
	c.log.Warn("gesture rejected", slog.String("op", op), slog.Any("err", err))
	c.events.Diagnostics.Emit(Diagnostic{View: c.name, Op: op, Err: err})
}

// MirrorPoint applies a leader's marker. Known ids are ignored.
func (c *ImageController) MirrorPoint(p domain.ImagePoint) {
	if c.points.Has(p.ID) {
		return
	}
	p.View = c.name
	_ = c.points.Add(p)
	c.drawPoint(p)
}

// MirrorPolygon applies a leader's polygon. Known ids are ignored.
func (c *ImageController) MirrorPolygon(poly domain.ImagePolygon) {
	if c.polygons.Has(poly.ID) {
		return
	}
	poly = poly.Clone()
	poly.View = c.name
	_ = c.addPolygon(poly)
}

func (c *ImageController) MirrorRemovePoint(id uuid.UUID)   { c.removePoint(id) }
func (c *ImageController) MirrorRemovePolygon(id uuid.UUID) { c.RemovePolygon(id) }
func (c *ImageController) MirrorReset()                     { c.ResetCache() }
func (c *ImageController) MirrorCursor(at geometry.Pt)      { c.events.CursorMoved.Emit(at) }
