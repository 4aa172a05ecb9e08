/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cube holds an in-memory band-interleaved-by-pixel data cube and the
// per-pixel statistics measurements are built from.
package cube

import (
	"errors"
	"fmt"
	"image"
	"math"

	"cubeview/internal/geometry"
)

var (
	ErrOutOfBounds = errors.New("cube: pixel out of bounds")
	ErrShape       = errors.New("cube: bad shape")
	ErrEmpty       = errors.New("cube: empty pixel set")
)

// Cube is a W x H raster with Bands values per pixel. Labels name the band
// axis (wavelengths, times, ...).
type Cube struct {
	W, H, Bands int
	Labels      []float64
	data        []float64
}

// New allocates a zeroed cube. labels may be nil, in which case band indices
// are used.
func New(w, h, bands int, labels []float64) (*Cube, error) {
	if w <= 0 || h <= 0 || bands <= 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrShape, w, h, bands)
	}
	if labels == nil {
		labels = make([]float64, bands)
		for i := range labels {
			labels[i] = float64(i)
		}
	}
	if len(labels) != bands {
		return nil, fmt.Errorf("%w: %d labels for %d bands", ErrShape, len(labels), bands)
	}
	return &Cube{W: w, H: h, Bands: bands, Labels: labels, data: make([]float64, w*h*bands)}, nil
}

// Synthetic returns a deterministic cube whose spectra vary smoothly with
// position, with a dip centred on band Bands/2. Used by the demo session.
func Synthetic(w, h, bands int) *Cube {
	labels := make([]float64, bands)
	for i := range labels {
		labels[i] = 400 + float64(i)*10
	}
	c, err := New(w, h, bands, labels)
	if err != nil {
		panic(err)
	}
	mid := float64(bands) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			base := 0.2 + 0.6*float64(x)/float64(w)
			depth := 0.3 * float64(y) / float64(h)
			for b := 0; b < bands; b++ {
				d := (float64(b) - mid) / (float64(bands)/8 + 1)
				c.data[c.index(x, y, b)] = base + 0.001*float64(b) - depth*math.Exp(-d*d)
			}
		}
	}
	return c
}

func (c *Cube) index(x, y, b int) int { return (y*c.W+x)*c.Bands + b }

// Bounds returns the raster extent.
func (c *Cube) Bounds() image.Rectangle { return image.Rect(0, 0, c.W, c.H) }

func (c *Cube) BandLabels() []float64 { return append([]float64(nil), c.Labels...) }

func (c *Cube) in(x, y int) bool { return x >= 0 && y >= 0 && x < c.W && y < c.H }

// Set stores one value.
func (c *Cube) Set(x, y, band int, v float64) error {
	if !c.in(x, y) || band < 0 || band >= c.Bands {
		return fmt.Errorf("%w: (%d,%d) band %d", ErrOutOfBounds, x, y, band)
	}
	c.data[c.index(x, y, band)] = v
	return nil
}

// Spectrum returns a copy of the value vector at (x,y).
func (c *Cube) Spectrum(x, y int) ([]float64, error) {
	if !c.in(x, y) {
		return nil, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, x, y)
	}
	i := c.index(x, y, 0)
	return append([]float64(nil), c.data[i:i+c.Bands]...), nil
}

// Value reports the band value under a data-space cursor position. ok is
// false outside the raster.
func (c *Cube) Value(p geometry.Pt, band int) (v float64, ok bool) {
	px := p.Pixel()
	if !c.in(px.X, px.Y) || band < 0 || band >= c.Bands {
		return 0, false
	}
	return c.data[c.index(px.X, px.Y, band)], true
}

// Stats returns the per-band mean and sample standard deviation (n-1) of the
// given pixels. A single pixel has zero deviation.
func (c *Cube) Stats(pixels []geometry.Pixel) (mean, std []float64, err error) {
	if len(pixels) == 0 {
		return nil, nil, ErrEmpty
	}
	mean = make([]float64, c.Bands)
	for _, p := range pixels {
		if !c.in(p.X, p.Y) {
			return nil, nil, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, p.X, p.Y)
		}
		i := c.index(p.X, p.Y, 0)
		for b := 0; b < c.Bands; b++ {
			mean[b] += c.data[i+b]
		}
	}
	n := float64(len(pixels))
	for b := range mean {
		mean[b] /= n
	}
	std = make([]float64, c.Bands)
	if len(pixels) < 2 {
		return mean, std, nil
	}
	for _, p := range pixels {
		i := c.index(p.X, p.Y, 0)
		for b := 0; b < c.Bands; b++ {
			d := c.data[i+b] - mean[b]
			std[b] += d * d
		}
	}
	for b := range std {
		std[b] = math.Sqrt(std[b] / (n - 1))
	}
	return mean, std, nil
}
