/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import (
	"image"
	"math"
)

// Contains reports whether p lies inside poly under the even-odd rule.
// Edges are half-open: a point on a left or top edge is inside, on a right or
// bottom edge outside, so adjacent polygons never both claim a pixel.
func Contains(poly []Pt, p Pt) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) == (b.Y > p.Y) {
			continue
		}
		x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
		if p.X < x {
			inside = !inside
		}
	}
	return inside
}

// Resolve returns the pixels whose centres lie inside poly, in row-major
// order. Only pixels whose centres fall within the polygon's bounding box are
// tested. A non-empty clip further restricts the result to the raster.
// Fewer than three vertices, or non-finite coordinates, yield nil.
func Resolve(poly []Pt, clip image.Rectangle) []Pixel {
	if len(poly) < 3 {
		return nil
	}
	bb, ok := Bounds(poly)
	if !ok {
		return nil
	}
	x0 := int(math.Ceil(bb.X - 0.5))
	x1 := int(math.Floor(bb.X + bb.W - 0.5))
	y0 := int(math.Ceil(bb.Y - 0.5))
	y1 := int(math.Floor(bb.Y + bb.H - 0.5))
	if !clip.Empty() {
		x0 = max(x0, clip.Min.X)
		y0 = max(y0, clip.Min.Y)
		x1 = min(x1, clip.Max.X-1)
		y1 = min(y1, clip.Max.Y-1)
	}
	var out []Pixel
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			px := Pixel{x, y}
			if Contains(poly, px.Center()) {
				out = append(out, px)
			}
		}
	}
	return out
}
