/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"cubeview/internal/geometry"
)

var background = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}

// Render rasterises the base image and every shape in draw order.
func (c *Canvas) Render() *image.RGBA {
	base, shapes := c.snapshot()
	size := c.Size()
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	if base != nil {
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), base, base.Bounds(), draw.Src, nil)
	}
	z := vector.NewRasterizer(size.X, size.Y)
	for _, s := range shapes {
		pts := make([]geometry.Pt, len(s.pts))
		for i, p := range s.pts {
			pts[i] = c.xf.Apply(p)
		}
		switch s.kind {
		case shapePoint:
			fill(z, dst, circle(pts[0], c.opts.MarkerRadius), s.col)
		case shapePolygon:
			if c.opts.FillAlpha > 0 {
				fc := s.col
				fc.R, fc.G, fc.B = scale8(fc.R, c.opts.FillAlpha), scale8(fc.G, c.opts.FillAlpha), scale8(fc.B, c.opts.FillAlpha)
				fc.A = c.opts.FillAlpha
				fill(z, dst, pts, fc)
			}
			stroke(z, dst, append(pts, pts[0]), c.opts.StrokeWidth, s.col)
		case shapeLine:
			if len(pts) == 1 {
				fill(z, dst, circle(pts[0], c.opts.StrokeWidth), s.col)
				continue
			}
			stroke(z, dst, pts, c.opts.StrokeWidth, s.col)
		case shapeLabel:
			d := &font.Drawer{
				Dst:  dst,
				Src:  image.NewUniform(s.col),
				Face: basicfont.Face7x13,
				Dot:  fixed.P(int(pts[0].X)+int(c.opts.MarkerRadius)+2, int(pts[0].Y)+4),
			}
			d.DrawString(s.text)
		}
	}
	return dst
}

// WritePNG encodes the rendered canvas.
func (c *Canvas) WritePNG(w io.Writer) error {
	if err := png.Encode(w, c.Render()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SavePNG renders the canvas to a file.
func (c *Canvas) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := c.WritePNG(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// scale8 premultiplies a channel by alpha.
func scale8(v, a uint8) uint8 { return uint8(uint16(v) * uint16(a) / 0xff) }

func fill(z *vector.Rasterizer, dst *image.RGBA, pts []geometry.Pt, col color.RGBA) {
	if len(pts) < 3 {
		return
	}
	z.Reset(dst.Bounds().Dx(), dst.Bounds().Dy())
	z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.X), float32(p.Y))
	}
	z.ClosePath()
	z.Draw(dst, dst.Bounds(), image.NewUniform(col), image.Point{})
}

// stroke draws a polyline as one quad per segment.
func stroke(z *vector.Rasterizer, dst *image.RGBA, pts []geometry.Pt, width float64, col color.RGBA) {
	z.Reset(dst.Bounds().Dx(), dst.Bounds().Dy())
	hw := width / 2
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*hw, dx/l*hw
		z.MoveTo(float32(a.X+nx), float32(a.Y+ny))
		z.LineTo(float32(b.X+nx), float32(b.Y+ny))
		z.LineTo(float32(b.X-nx), float32(b.Y-ny))
		z.LineTo(float32(a.X-nx), float32(a.Y-ny))
		z.ClosePath()
	}
	z.Draw(dst, dst.Bounds(), image.NewUniform(col), image.Point{})
}

func circle(at geometry.Pt, r float64) []geometry.Pt {
	const n = 16
	pts := make([]geometry.Pt, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / n
		pts[i] = geometry.Pt{X: at.X + r*math.Cos(a), Y: at.Y + r*math.Sin(a)}
	}
	return pts
}

// BandSource is a raster with per-band values.
type BandSource interface {
	Bounds() image.Rectangle
	Value(p geometry.Pt, band int) (float64, bool)
}

// Grayscale renders one band stretched between its minimum and maximum.
func Grayscale(src BandSource, band int) (*image.Gray, error) {
	b := src.Bounds()
	lo, hi := math.Inf(1), math.Inf(-1)
	vals := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v, ok := src.Value(geometry.Pixel{X: x, Y: y}.Center(), band)
			if !ok {
				return nil, fmt.Errorf("overlay: band %d unavailable at (%d,%d)", band, x, y)
			}
			lo, hi = math.Min(lo, v), math.Max(hi, v)
			vals = append(vals, v)
		}
	}
	img := image.NewGray(b)
	span := hi - lo
	for i, v := range vals {
		g := uint8(0)
		if span > 0 {
			g = uint8(math.Round((v - lo) / span * 255))
		}
		img.Pix[(i/b.Dx())*img.Stride+i%b.Dx()] = g
	}
	return img, nil
}
