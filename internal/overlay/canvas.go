/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package overlay keeps the shapes drawn over an image view and rasterises
// them onto a band image.
package overlay

import (
	"image"
	"image/color"
	"sync"

	"github.com/google/uuid"

	"cubeview/internal/geometry"
)

type shapeKind int

const (
	shapePoint shapeKind = iota
	shapePolygon
	shapeLine
	shapeLabel
)

type shape struct {
	kind shapeKind
	pts  []geometry.Pt
	col  color.RGBA
	text string
}

// Options controls how shapes are rasterised.
type Options struct {
	Scale        float64 // output pixels per raster pixel, default 1
	MarkerRadius float64 // in output pixels, default 3
	StrokeWidth  float64 // in output pixels, default 1
	FillAlpha    uint8   // polygon fill alpha, 0 disables the fill
}

// Canvas records overlay shapes per id in draw order. It satisfies the
// selection overlay contract and is safe for concurrent use.
type Canvas struct {
	mu     sync.Mutex
	bounds image.Rectangle
	opts   Options
	xf     geometry.Affine2D
	base   image.Image
	shapes map[uuid.UUID][]shape
	order  []uuid.UUID
}

func New(bounds image.Rectangle, opts Options) *Canvas {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.MarkerRadius <= 0 {
		opts.MarkerRadius = 3
	}
	if opts.StrokeWidth <= 0 {
		opts.StrokeWidth = 1
	}
	return &Canvas{
		bounds: bounds,
		opts:   opts,
		xf:     geometry.Scale(opts.Scale, opts.Scale).Mul(geometry.Translate(-float64(bounds.Min.X), -float64(bounds.Min.Y))),
		shapes: map[uuid.UUID][]shape{},
	}
}

// SetBase sets the image drawn under the shapes. It is scaled to the canvas.
func (c *Canvas) SetBase(img image.Image) {
	c.mu.Lock()
	c.base = img
	c.mu.Unlock()
}

// Transform maps data-space coordinates to output pixels.
func (c *Canvas) Transform() geometry.Affine2D { return c.xf }

// Size is the output image size.
func (c *Canvas) Size() image.Point {
	return image.Pt(int(float64(c.bounds.Dx())*c.opts.Scale+0.5), int(float64(c.bounds.Dy())*c.opts.Scale+0.5))
}

func (c *Canvas) add(id uuid.UUID, s shape) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.shapes[id]; !ok {
		c.order = append(c.order, id)
	}
	c.shapes[id] = append(c.shapes[id], s)
}

func (c *Canvas) DrawPoint(id uuid.UUID, at geometry.Pt, col color.RGBA) {
	c.add(id, shape{kind: shapePoint, pts: []geometry.Pt{at}, col: col})
}

// DrawPolygon replaces any polygon already drawn for id.
func (c *Canvas) DrawPolygon(id uuid.UUID, vertices []geometry.Pt, col color.RGBA) {
	c.mu.Lock()
	if old, ok := c.shapes[id]; ok {
		kept := old[:0]
		for _, s := range old {
			if s.kind != shapePolygon {
				kept = append(kept, s)
			}
		}
		c.shapes[id] = kept
	}
	c.mu.Unlock()
	c.add(id, shape{kind: shapePolygon, pts: append([]geometry.Pt(nil), vertices...), col: col})
}

// DrawLine draws a polyline through the centres of pixels.
func (c *Canvas) DrawLine(id uuid.UUID, pixels []geometry.Pixel, col color.RGBA) {
	pts := make([]geometry.Pt, len(pixels))
	for i, p := range pixels {
		pts[i] = p.Center()
	}
	c.add(id, shape{kind: shapeLine, pts: pts, col: col})
}

// Annotate attaches a text label at a data-space position.
func (c *Canvas) Annotate(id uuid.UUID, at geometry.Pt, text string, col color.RGBA) {
	c.add(id, shape{kind: shapeLabel, pts: []geometry.Pt{at}, col: col, text: text})
}

// Erase removes every shape drawn for id.
func (c *Canvas) Erase(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.shapes[id]; !ok {
		return
	}
	delete(c.shapes, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Canvas) Clear() {
	c.mu.Lock()
	c.shapes = map[uuid.UUID][]shape{}
	c.order = nil
	c.mu.Unlock()
}

// Len returns the number of ids with at least one shape.
func (c *Canvas) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Has reports whether anything is drawn for id.
func (c *Canvas) Has(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.shapes[id]
	return ok
}

func (c *Canvas) snapshot() (image.Image, []shape) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []shape
	for _, id := range c.order {
		out = append(out, c.shapes[id]...)
	}
	return c.base, out
}
