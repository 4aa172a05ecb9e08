/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import (
	"errors"
	"fmt"
)

// ErrLineNotConverged means the rasterizer missed its terminal pixel within
// max(|dx|,|dy|)+1 steps. It signals a defect, never a normal outcome.
var ErrLineNotConverged = errors.New("geometry: line did not converge")

// Line returns the Bresenham pixel path from a to b, inclusive of both ends,
// ordered from a. Consecutive pixels are 8-connected and the path holds
// exactly max(|dx|,|dy|)+1 pixels.
func Line(a, b Pixel) ([]Pixel, error) {
	dx, dy := abs(b.X-a.X), abs(b.Y-a.Y)
	steps := max(dx, dy) + 1
	var path []Pixel
	if dy < dx {
		path = lineLow(a, b, steps)
	} else {
		path = lineHigh(a, b, steps)
	}
	if len(path) == 0 || path[0] != a || path[len(path)-1] != b {
		return path, fmt.Errorf("%w: %v -> %v after %d steps", ErrLineNotConverged, a, b, len(path))
	}
	return path, nil
}

// lineLow handles |dy| < |dx|; x drives.
func lineLow(a, b Pixel, steps int) []Pixel {
	xi := 1
	if b.X < a.X {
		xi = -1
	}
	dx, dy := abs(b.X-a.X), b.Y-a.Y
	yi := 1
	if dy < 0 {
		yi, dy = -1, -dy
	}
	d := 2*dy - dx
	path := make([]Pixel, 0, steps)
	x, y := a.X, a.Y
	for i := 0; i < steps; i++ {
		path = append(path, Pixel{x, y})
		if x == b.X {
			break
		}
		if d > 0 {
			y += yi
			d -= 2 * dx
		}
		d += 2 * dy
		x += xi
	}
	return path
}

// lineHigh handles |dy| >= |dx|; y drives.
func lineHigh(a, b Pixel, steps int) []Pixel {
	yi := 1
	if b.Y < a.Y {
		yi = -1
	}
	dx, dy := b.X-a.X, abs(b.Y-a.Y)
	xi := 1
	if dx < 0 {
		xi, dx = -1, -dx
	}
	d := 2*dx - dy
	path := make([]Pixel, 0, steps)
	x, y := a.X, a.Y
	for i := 0; i < steps; i++ {
		path = append(path, Pixel{x, y})
		if y == b.Y {
			break
		}
		if d > 0 {
			x += xi
			d -= 2 * dy
		}
		d += 2 * dx
		y += yi
	}
	return path
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
