//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/google/uuid"

	"cubeview/internal/config"
	"cubeview/internal/crash"
	"cubeview/internal/cube"
	"cubeview/internal/domain"
	"cubeview/internal/geometry"
	"cubeview/internal/interaction"
	"cubeview/internal/journal"
	applog "cubeview/internal/log"
	"cubeview/internal/overlay"
	"cubeview/internal/palette"
	"cubeview/internal/processing"
	"cubeview/internal/selection"
	"cubeview/internal/telemetry"
	"cubeview/internal/version"
)

const renderScale = 8

// Run starts the desktop shell over a synthetic cube. baseDir overrides the
// configured base directory when non-empty.
func Run(baseDir string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applog.Init(cfg.Logging.LogOptions())
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))
	if baseDir == "" {
		baseDir = cfg.General.BaseDir
	}

	sess := &crash.Session{BaseDir: baseDir}
	defer crash.Recover(sess)

	src := cube.Synthetic(64, 48, 32)
	state := selection.NewAppState(baseDir)
	coord := selection.NewCoordinator()
	defer coord.Close()
	sess.Summary = coord.Summary

	fyneApp := app.NewWithID("io.cubeview")
	w := fyneApp.NewWindow("CubeView " + version.String())
	prefs := fyneApp.Preferences()
	w.Resize(fyne.NewSize(float32(max(prefs.IntWithFallback("window.width", 1200), 800)), float32(max(prefs.IntWithFallback("window.height", 800), 600))))
	status := widget.NewLabel("Ready")

	cols, err := palette.Resolve(cfg.Selection.Palette, cfg.Selection.PaletteFile)
	if err != nil {
		return err
	}
	l.Info("palette", slog.String("name", cfg.Selection.Palette), slog.Int("colors", len(cols)))

	view := NewCubeView(src)
	img, err := selection.NewImageController("image", state, selection.ImageOptions{
		Bounds:      src.Bounds(),
		Overlay:     view.overlay,
		Scheduler:   interaction.HostScheduler{Post: fyne.Do},
		DoubleClick: cfg.Selection.DoubleClick(),
	})
	if err != nil {
		return err
	}
	meas, err := selection.NewMeasurementController("spectra", state, selection.MeasurementOptions{
		Source:   src,
		Palette:  cols,
		MaxPlots: cfg.Selection.MaxMeasurements,
	})
	if err != nil {
		return err
	}
	if err := coord.AddImage(img); err != nil {
		return err
	}
	if err := coord.AddMeasurement(meas); err != nil {
		return err
	}
	if _, err := coord.Link("image", "spectra"); err != nil {
		return err
	}
	view.Bind(img)

	if cfg.Journal.Enabled {
		dsn := cfg.Journal.DSN
		if dsn == "" {
			dsn = journal.DefaultPath(baseDir)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		j, err := journal.Open(ctx, dsn)
		cancel()
		if err != nil {
			return err
		}
		defer j.Close()
		sess.Closers = append(sess.Closers, j)
		defer j.Attach(meas)()
	}

	tel := telemetry.Default()
	if cfg.General.TelemetryOptIn {
		defer tel.WatchMeasurements(meas)()
		defer tel.WatchImage(img)()
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		tel.Flush(ctx)
	}()

	list := newMeasurementList(meas)
	stepSel := widget.NewSelect(stepOptions(), nil)
	stepSel.SetSelected("none")
	removeBtn := widget.NewButton("Remove", func() {
		if m, ok := list.current(); ok {
			if err := meas.Remove(m.ID); err != nil {
				dialog.ShowError(err, w)
			}
		}
	})
	resetBtn := widget.NewButton("Reset", func() {
		if err := meas.ResetCache(); err != nil {
			dialog.ShowError(err, w)
		}
	})
	detail := widget.NewLabel("")
	detail.Wrapping = fyne.TextWrapWord
	showDetail := func() {
		m, ok := list.current()
		if !ok {
			detail.SetText("")
			return
		}
		var flags []processing.Flag
		if s := stepSel.Selected; s != "" && s != "none" {
			flags = append(flags, processing.Flag{Step: processing.Step(s)})
		}
		out, err := meas.Process(m.ID, flags)
		if err != nil {
			detail.SetText(err.Error())
			return
		}
		detail.SetText(describe(m, out))
	}
	list.onSelect = showDetail
	stepSel.OnChanged = func(string) { showDetail() }

	ev, mev := img.Events(), meas.Events()
	ev.CursorMoved.Subscribe(func(at geometry.Pt) {
		if v, ok := src.Value(at, src.Bands/2); ok {
			px := at.Pixel()
			status.SetText(fmt.Sprintf("(%d, %d) %.4f  mode: %s", px.X, px.Y, v, img.Mode()))
		}
	})
	ev.Diagnostics.Subscribe(func(d selection.Diagnostic) { status.SetText(d.String()) })
	mev.Notices.Subscribe(func(n selection.Notice) { status.SetText(n.Msg) })
	mev.Traced.Subscribe(func(tr selection.Trace) {
		status.SetText(fmt.Sprintf("line: %d pixels from %v to %v", len(tr.Line.Pixels), tr.Line.Start, tr.Line.End))
	})

	w.Canvas().SetOnTypedKey(func(k *fyne.KeyEvent) {
		switch k.Name {
		case fyne.KeyEscape:
			img.CancelGesture()
			view.redraw()
		case fyne.KeyReturn, fyne.KeyEnter:
			if err := img.FinishGesture(); err != nil {
				status.SetText(err.Error())
			}
		}
	})

	help := widget.NewLabel("click: point   ctrl+click: lasso start/finish   alt+click: line start/finish   esc: cancel")
	side := container.NewBorder(container.NewHBox(removeBtn, resetBtn, stepSel), detail, nil, nil, list.widget)
	split := container.NewHSplit(view, side)
	split.Offset = 0.65
	w.SetContent(container.NewBorder(help, status, nil, nil, split))
	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
	})
	w.ShowAndRun()
	return nil
}

func stepOptions() []string {
	opts := []string{"none"}
	for _, s := range processing.StepNames() {
		opts = append(opts, string(s))
	}
	return opts
}

func describe(m domain.Measurement, s processing.Spectrum) string {
	if len(s.Y) == 0 {
		return m.Name
	}
	lo, hi := s.Y[0], s.Y[0]
	for _, v := range s.Y {
		lo, hi = min(lo, v), max(hi, v)
	}
	return fmt.Sprintf("%s  %s  centroid %v\n%d bands, %.4f .. %.4f", m.Name, m.Kind, m.Centroid, len(s.Y), lo, hi)
}

// CubeView shows one band of a cube with the selection overlay on top and
// feeds mouse input to an image controller.
type CubeView struct {
	widget.BaseWidget

	raster  image.Point
	overlay *overlay.Canvas
	img     *canvas.Image
	ctrl    *selection.ImageController
}

func NewCubeView(src *cube.Cube) *CubeView {
	v := &CubeView{
		raster:  src.Bounds().Size(),
		overlay: overlay.New(src.Bounds(), overlay.Options{Scale: renderScale, MarkerRadius: 5, StrokeWidth: 2, FillAlpha: 0x40}),
	}
	if base, err := overlay.Grayscale(src, src.Bands/2); err == nil {
		v.overlay.SetBase(base)
	}
	v.img = canvas.NewImageFromImage(v.overlay.Render())
	v.img.FillMode = canvas.ImageFillContain
	v.img.ScaleMode = canvas.ImageScalePixels
	v.ExtendBaseWidget(v)
	return v
}

// Bind connects the view to its controller and redraws on every overlay change.
func (v *CubeView) Bind(ctrl *selection.ImageController) {
	v.ctrl = ctrl
	ev := ctrl.Events()
	ev.PointAdded.Subscribe(func(domain.ImagePoint) { v.redraw() })
	ev.PolygonAdded.Subscribe(func(domain.ImagePolygon) { v.redraw() })
	ev.PointRemoved.Subscribe(func(uuid.UUID) { v.redraw() })
	ev.PolygonRemoved.Subscribe(func(uuid.UUID) { v.redraw() })
	ev.LineSelected.Subscribe(func(selection.LineSelected) { v.redraw() })
	ev.Reset.Subscribe(func(struct{}) { v.redraw() })
	ev.Diagnostics.Subscribe(func(selection.Diagnostic) { v.redraw() })
}

func (v *CubeView) redraw() {
	v.img.Image = v.overlay.Render()
	v.img.Refresh()
}

func (v *CubeView) CreateRenderer() fyne.WidgetRenderer { return widget.NewSimpleRenderer(v.img) }

func (v *CubeView) MinSize() fyne.Size {
	return fyne.NewSize(float32(v.raster.X*4), float32(v.raster.Y*4))
}

func (v *CubeView) MouseDown(e *desktop.MouseEvent) {
	if v.ctrl == nil {
		return
	}
	v.ctrl.PointerDown(pointerEvent(e, v.Size(), v.raster))
}

func (v *CubeView) MouseUp(*desktop.MouseEvent) {}

func (v *CubeView) MouseIn(*desktop.MouseEvent) {}

func (v *CubeView) MouseMoved(e *desktop.MouseEvent) {
	if v.ctrl == nil {
		return
	}
	v.ctrl.PointerMove(toData(e.Position, v.Size(), v.raster))
	if v.ctrl.Mode() == interaction.Lasso {
		v.redraw()
	}
}

func (v *CubeView) MouseOut() {}

// toData maps a widget position to raster coordinates for an image drawn
// with ImageFillContain.
func toData(pos fyne.Position, size fyne.Size, raster image.Point) geometry.Pt {
	if raster.X == 0 || raster.Y == 0 || size.Width == 0 || size.Height == 0 {
		return geometry.Pt{}
	}
	s := min(size.Width/float32(raster.X), size.Height/float32(raster.Y))
	ox := (size.Width - float32(raster.X)*s) / 2
	oy := (size.Height - float32(raster.Y)*s) / 2
	return geometry.Pt{X: float64((pos.X - ox) / s), Y: float64((pos.Y - oy) / s)}
}

func pointerEvent(e *desktop.MouseEvent, size fyne.Size, raster image.Point) interaction.PointerEvent {
	ev := interaction.PointerEvent{Pos: toData(e.Position, size, raster)}
	switch e.Button {
	case desktop.MouseButtonPrimary:
		ev.Button = interaction.ButtonLeft
	case desktop.MouseButtonSecondary:
		ev.Button = interaction.ButtonRight
	default:
		ev.Button = interaction.ButtonMiddle
	}
	if e.Modifier&fyne.KeyModifierControl != 0 {
		ev.Mods |= interaction.ModCtrl
	}
	if e.Modifier&fyne.KeyModifierAlt != 0 {
		ev.Mods |= interaction.ModAlt
	}
	if e.Modifier&fyne.KeyModifierShift != 0 {
		ev.Mods |= interaction.ModShift
	}
	return ev
}

// measurementList mirrors a measurement view's cache into a widget.List.
type measurementList struct {
	widget   *widget.List
	items    []domain.Measurement
	selected int
	onSelect func()
}

func newMeasurementList(mc *selection.MeasurementController) *measurementList {
	ml := &measurementList{selected: -1}
	ml.widget = widget.NewList(
		func() int { return len(ml.items) },
		func() fyne.CanvasObject {
			sw := canvas.NewRectangle(color.Black)
			sw.SetMinSize(fyne.NewSize(14, 14))
			return container.NewHBox(sw, widget.NewLabel("Measurement00"))
		},
		func(id widget.ListItemID, o fyne.CanvasObject) {
			box := o.(*fyne.Container)
			m := ml.items[id]
			sw := box.Objects[0].(*canvas.Rectangle)
			sw.FillColor = m.Color
			sw.Refresh()
			box.Objects[1].(*widget.Label).SetText(fmt.Sprintf("%s (%s)", m.Name, m.Kind))
		},
	)
	ml.widget.OnSelected = func(id widget.ListItemID) {
		ml.selected = id
		if ml.onSelect != nil {
			ml.onSelect()
		}
	}
	sync := func() {
		ml.items = mc.Measurements()
		if ml.selected >= len(ml.items) {
			ml.selected = -1
			ml.widget.UnselectAll()
		}
		ml.widget.Refresh()
		if ml.onSelect != nil {
			ml.onSelect()
		}
	}
	ev := mc.Events()
	ev.Added.Subscribe(func(domain.Measurement) { sync() })
	ev.Removed.Subscribe(func(domain.Measurement) { sync() })
	ev.Renamed.Subscribe(func(selection.Renamed) { sync() })
	ev.Reset.Subscribe(func(struct{}) { sync() })
	return ml
}

func (ml *measurementList) current() (domain.Measurement, bool) {
	if ml.selected < 0 || ml.selected >= len(ml.items) {
		return domain.Measurement{}, false
	}
	return ml.items[ml.selected], true
}
