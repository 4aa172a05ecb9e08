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

	"github.com/google/uuid"

	"cubeview/internal/domain"
	"cubeview/internal/geometry"
	applog "cubeview/internal/log"
	"cubeview/internal/palette"
	"cubeview/internal/processing"
)

// DefaultMaxPlots is the number of measurements a view plots at once.
const DefaultMaxPlots = 8

var (
	// ErrCapacity rejects an add past the plot cap. A CapacityReached notice
	// is emitted alongside.
	ErrCapacity       = errors.New("selection: measurement capacity reached")
	ErrEmptySelection = errors.New("selection: empty pixel selection")
	ErrNoSource       = errors.New("selection: measurement view has no value source")
)

// MeasurementOptions configures a MeasurementController.
type MeasurementOptions struct {
	Source   ValueSource
	Palette  []color.RGBA
	MaxPlots int
}

// MeasurementController owns one measurement view: its cache, plot counter
// and color sequencer.
type MeasurementController struct {
	name     string
	state    *AppState
	source   ValueSource
	colors   *palette.ColorSequencer
	maxPlots int
	log      *slog.Logger

	cache    *Cache[domain.Measurement]
	plotted  int
	owned    map[uuid.UUID]bool // ids holding a pulled color
	follower bool
	events   MeasurementEvents
}

func NewMeasurementController(name string, state *AppState, opts MeasurementOptions) (*MeasurementController, error) {
	if state == nil {
		return nil, errors.New("selection: nil app state")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, name)
	}
	cols := opts.Palette
	if len(cols) == 0 {
		var err error
		if cols, err = palette.Named(palette.DefaultName); err != nil {
			return nil, err
		}
	}
	if opts.MaxPlots <= 0 {
		opts.MaxPlots = DefaultMaxPlots
	}
	return &MeasurementController{
		name:     name,
		state:    state,
		source:   opts.Source,
		colors:   palette.NewSequencer(cols),
		maxPlots: opts.MaxPlots,
		log:      applog.WithView(applog.WithComponent("selection"), name),
		cache:    NewCache(func(m domain.Measurement) uuid.UUID { return m.ID }),
		owned:    map[uuid.UUID]bool{},
	}, nil
}

func (c *MeasurementController) Name() string                     { return c.name }
func (c *MeasurementController) Events() *MeasurementEvents       { return &c.events }
func (c *MeasurementController) IsFollower() bool                 { return c.follower }
func (c *MeasurementController) SetFollower(follows bool)         { c.follower = follows }
func (c *MeasurementController) Plotted() int                     { return c.plotted }
func (c *MeasurementController) MaxPlots() int                    { return c.maxPlots }
func (c *MeasurementController) Len() int                         { return c.cache.Len() }
func (c *MeasurementController) Bounds() image.Rectangle          { return c.source.Bounds() }
func (c *MeasurementController) Palette() *palette.ColorSequencer { return c.colors }

// Measurements returns copies of the cached measurements in insertion order.
func (c *MeasurementController) Measurements() []domain.Measurement {
	all := c.cache.All()
	for i := range all {
		all[i] = all[i].Clone()
	}
	return all
}

func (c *MeasurementController) Get(id uuid.UUID) (domain.Measurement, bool) {
	m, ok := c.cache.Get(id)
	return m.Clone(), ok
}

// AddPoint samples a single pixel.
func (c *MeasurementController) AddPoint(px geometry.Pixel) (domain.Measurement, error) {
	if c.follower {
		return domain.Measurement{}, ErrFollower
	}
	if err := c.checkCapacity(); err != nil {
		return domain.Measurement{}, err
	}
	values, err := c.source.Spectrum(px.X, px.Y)
	if err != nil {
		return domain.Measurement{}, fmt.Errorf("%s: add point: %w", c.name, err)
	}
	return c.commit(domain.Measurement{
		ID:       domain.NewID(),
		Kind:     domain.KindPoint,
		Values:   values,
		Labels:   c.source.BandLabels(),
		Centroid: px,
	})
}

// AddGroup averages a pixel set. id is normally the id of the polygon the
// pixels came from; uuid.Nil draws a fresh one.
func (c *MeasurementController) AddGroup(id uuid.UUID, pixels []geometry.Pixel) (domain.Measurement, error) {
	if c.follower {
		return domain.Measurement{}, ErrFollower
	}
	if len(pixels) == 0 {
		return domain.Measurement{}, ErrEmptySelection
	}
	if id == uuid.Nil {
		id = domain.NewID()
	}
	if c.cache.Has(id) {
		return domain.Measurement{}, fmt.Errorf("%s: add group: %w: %s", c.name, ErrDuplicateID, id)
	}
	if err := c.checkCapacity(); err != nil {
		return domain.Measurement{}, err
	}
	mean, std, err := c.source.Stats(pixels)
	if err != nil {
		return domain.Measurement{}, fmt.Errorf("%s: add group: %w", c.name, err)
	}
	return c.commit(domain.Measurement{
		ID:       id,
		Kind:     domain.KindGroup,
		Values:   mean,
		Std:      std,
		Labels:   c.source.BandLabels(),
		Centroid: geometry.Centroid(pixels),
		Pixels:   append([]geometry.Pixel(nil), pixels...),
	})
}

func (c *MeasurementController) checkCapacity() error {
	if c.plotted < c.maxPlots {
		return nil
	}
	c.log.Warn("max number of measurements plotted", slog.Int("max", c.maxPlots))
	c.events.Notices.Emit(Notice{
		View: c.name,
		Kind: CapacityReached,
		Msg:  fmt.Sprintf("%d measurements plotted; reset to continue", c.maxPlots),
	})
	return fmt.Errorf("%w: %s holds %d", ErrCapacity, c.name, c.maxPlots)
}

func (c *MeasurementController) commit(m domain.Measurement) (domain.Measurement, error) {
	col, err := c.colors.Next()
	pulled := err == nil
	if errors.Is(err, palette.ErrExhausted) {
		c.log.Warn("palette exhausted, reusing last color", slog.String("color", palette.Hex(col)))
		c.events.Notices.Emit(Notice{View: c.name, Kind: PaletteExhausted, Msg: "palette exhausted", Color: col})
	}
	m.Color = col
	m.Name = fmt.Sprintf("Measurement%d", c.plotted+1)
	if err := m.Validate(); err != nil {
		c.release(col, pulled)
		return domain.Measurement{}, err
	}
	if err := c.cache.Add(m); err != nil {
		c.release(col, pulled)
		return domain.Measurement{}, fmt.Errorf("%s: %w", c.name, err)
	}
	if pulled {
		c.owned[m.ID] = true
	}
	c.plotted++
	c.state.Model.MeasPlotAdded()
	c.log.Info("measurement added",
		slog.String("id", m.ID.String()),
		slog.String("kind", m.Kind.String()),
		slog.String("name", m.Name),
		slog.String("color", palette.Hex(m.Color)))
	c.events.Added.Emit(m.Clone())
	return m, nil
}

func (c *MeasurementController) release(col color.RGBA, pulled bool) {
	if pulled {
		c.colors.Delete(col)
	}
}

// Remove deletes a measurement and frees its color.
func (c *MeasurementController) Remove(id uuid.UUID) error {
	if c.follower {
		return ErrFollower
	}
	m, ok := c.cache.Remove(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.release(m.Color, c.owned[id])
	delete(c.owned, id)
	c.plotted = max(c.plotted-1, 0)
	c.log.Info("measurement removed", slog.String("id", id.String()))
	c.events.Removed.Emit(m)
	return nil
}

// Rename changes a measurement's display name.
func (c *MeasurementController) Rename(id uuid.UUID, name string) error {
	if c.follower {
		return ErrFollower
	}
	if !c.cache.Update(id, func(m *domain.Measurement) { m.Name = name }) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.events.Renamed.Emit(Renamed{ID: id, Name: name})
	return nil
}

// ResetCache clears the view, zeroes its counters and asks the shared model
// to reset every image view.
func (c *MeasurementController) ResetCache() error {
	if c.follower {
		return ErrFollower
	}
	c.clear()
	c.events.Reset.Emit(struct{}{})
	c.state.Model.InitiateReset()
	return nil
}

func (c *MeasurementController) clear() {
	c.cache.Clear()
	c.plotted = 0
	c.colors.Reset()
	c.owned = map[uuid.UUID]bool{}
	c.log.Info("cache reset")
}

// Trace samples every pixel along a line selection. Traces are not cached
// and do not count against the plot cap.
func (c *MeasurementController) Trace(line domain.LineProfile) (Trace, error) {
	tr := Trace{Line: line, Labels: c.source.BandLabels()}
	for _, px := range line.Pixels {
		s, err := c.source.Spectrum(px.X, px.Y)
		if err != nil {
			return Trace{}, fmt.Errorf("%s: trace: %w", c.name, err)
		}
		tr.Spectra = append(tr.Spectra, s)
	}
	c.events.Traced.Emit(tr)
	return tr, nil
}

// Process runs a processing pipeline over a cached measurement. The cached
// values are left untouched.
func (c *MeasurementController) Process(id uuid.UUID, flags []processing.Flag) (processing.Spectrum, error) {
	m, ok := c.cache.Get(id)
	if !ok {
		return processing.Spectrum{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	x := m.Labels
	if x == nil {
		x = make([]float64, len(m.Values))
		for i := range x {
			x[i] = float64(i)
		}
	}
	out, err := processing.Apply(processing.Spectrum{X: x, Y: m.Values}, flags)
	if err != nil {
		return processing.Spectrum{}, fmt.Errorf("%s: process %s: %w", c.name, m.Name, err)
	}
	c.log.Debug("measurement processed", slog.String("id", id.String()), slog.Int("steps", len(flags)))
	return out, nil
}

// MirrorAdd applies a leader's measurement. Known ids are ignored; the cap
// does not apply to mirrored entities.
func (c *MeasurementController) MirrorAdd(m domain.Measurement) {
	if c.cache.Has(m.ID) {
		return
	}
	m = m.Clone()
	_ = c.cache.Add(m)
	c.plotted++
	c.events.Added.Emit(m.Clone())
}

func (c *MeasurementController) MirrorRemove(id uuid.UUID) {
	m, ok := c.cache.Remove(id)
	if !ok {
		return
	}
	c.plotted = max(c.plotted-1, 0)
	c.events.Removed.Emit(m)
}

func (c *MeasurementController) MirrorRename(id uuid.UUID, name string) {
	m, ok := c.cache.Get(id)
	if !ok || m.Name == name {
		return
	}
	c.cache.Update(id, func(m *domain.Measurement) { m.Name = name })
	c.events.Renamed.Emit(Renamed{ID: id, Name: name})
}

func (c *MeasurementController) MirrorReset() {
	c.clear()
	c.events.Reset.Emit(struct{}{})
}
