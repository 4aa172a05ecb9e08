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
	"sort"
)

var (
	// ErrDegenerateRegion is returned for pixel sets too small to enclose area.
	ErrDegenerateRegion = errors.New("geometry: degenerate region")
	// ErrDisjointRegion is returned when the pixel set is not 4-connected.
	ErrDisjointRegion = errors.New("geometry: disjoint region")
	// ErrRegionTrimmed reports fragments dropped by Trim. The region itself
	// is still usable.
	ErrRegionTrimmed = errors.New("geometry: region trimmed")
)

// MinRegionPixels is the smallest pixel set Boundary accepts.
const MinRegionPixels = 3

type edge struct {
	from, to Pixel
	used     bool
}

// Boundary traces the outer outline of the union of the pixel squares. The
// ring runs along pixel corners, clockwise on screen (y down), starting at the
// top-most then left-most vertex, with collinear vertices dropped. Holes are
// not reported.
func Boundary(pixels []Pixel) ([]Pt, error) {
	set := make(map[Pixel]struct{}, len(pixels))
	for _, p := range pixels {
		set[p] = struct{}{}
	}
	if len(set) < MinRegionPixels {
		return nil, ErrDegenerateRegion
	}
	if !connected(set) {
		return nil, ErrDisjointRegion
	}

	has := func(x, y int) bool { _, ok := set[Pixel{x, y}]; return ok }
	var edges []*edge
	out := map[Pixel][]*edge{}
	add := func(a, b Pixel) {
		e := &edge{from: a, to: b}
		edges = append(edges, e)
		out[a] = append(out[a], e)
	}
	for _, p := range sortedPixels(set) {
		x, y := p.X, p.Y
		if !has(x, y-1) {
			add(Pixel{x, y}, Pixel{x + 1, y})
		}
		if !has(x+1, y) {
			add(Pixel{x + 1, y}, Pixel{x + 1, y + 1})
		}
		if !has(x, y+1) {
			add(Pixel{x + 1, y + 1}, Pixel{x, y + 1})
		}
		if !has(x-1, y) {
			add(Pixel{x, y + 1}, Pixel{x, y})
		}
	}

	var best []Pixel
	bestArea := 0
	for _, e := range edges {
		if e.used {
			continue
		}
		loop := traceLoop(e, out)
		if a := area2(loop); a > bestArea {
			best, bestArea = loop, a
		}
	}
	if best == nil {
		return nil, ErrDegenerateRegion
	}
	return ring(simplify(best)), nil
}

// traceLoop walks unused edges from start until it returns to its origin. At a
// pinch corner the left-most turn is taken so each loop borders one
// 4-connected background region.
func traceLoop(start *edge, out map[Pixel][]*edge) []Pixel {
	var loop []Pixel
	e := start
	for {
		e.used = true
		loop = append(loop, e.from)
		dx, dy := e.to.X-e.from.X, e.to.Y-e.from.Y
		var next *edge
		rank := 4
		for _, c := range out[e.to] {
			if c.used && c != start {
				continue
			}
			if r := turnRank(dx, dy, c.to.X-c.from.X, c.to.Y-c.from.Y); r < rank {
				next, rank = c, r
			}
		}
		if next == nil || next == start {
			return loop
		}
		e = next
	}
}

// turnRank orders candidate directions: left, straight, right, back.
// With y pointing down, the left of (dx,dy) is (dy,-dx).
func turnRank(dx, dy, nx, ny int) int {
	switch {
	case nx == dy && ny == -dx:
		return 0
	case nx == dx && ny == dy:
		return 1
	case nx == -dy && ny == dx:
		return 2
	default:
		return 3
	}
}

// area2 is twice the signed shoelace area; positive for screen-clockwise rings.
func area2(loop []Pixel) int {
	s := 0
	for i := range loop {
		a, b := loop[i], loop[(i+1)%len(loop)]
		s += a.X*b.Y - b.X*a.Y
	}
	return s
}

func simplify(loop []Pixel) []Pixel {
	n := len(loop)
	out := make([]Pixel, 0, n)
	for i := range loop {
		prev, cur, next := loop[(i+n-1)%n], loop[i], loop[(i+1)%n]
		if (cur.X-prev.X)*(next.Y-cur.Y) == (cur.Y-prev.Y)*(next.X-cur.X) {
			continue
		}
		out = append(out, cur)
	}
	return out
}

func ring(loop []Pixel) []Pt {
	start := 0
	for i, p := range loop {
		s := loop[start]
		if p.Y < s.Y || (p.Y == s.Y && p.X < s.X) {
			start = i
		}
	}
	pts := make([]Pt, 0, len(loop))
	for i := range loop {
		p := loop[(start+i)%len(loop)]
		pts = append(pts, Pt{float64(p.X), float64(p.Y)})
	}
	return pts
}

func connected(set map[Pixel]struct{}) bool {
	return len(components(set)) <= 1
}

// components splits set into 4-connected components, largest first. Ties
// keep row-major order of their first pixel.
func components(set map[Pixel]struct{}) [][]Pixel {
	seen := make(map[Pixel]bool, len(set))
	var comps [][]Pixel
	for _, seed := range sortedPixels(set) {
		if seen[seed] {
			continue
		}
		seen[seed] = true
		comp := []Pixel{seed}
		stack := []Pixel{seed}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, n := range [4]Pixel{{p.X + 1, p.Y}, {p.X - 1, p.Y}, {p.X, p.Y + 1}, {p.X, p.Y - 1}} {
				if _, ok := set[n]; ok && !seen[n] {
					seen[n] = true
					comp = append(comp, n)
					stack = append(stack, n)
				}
			}
		}
		comps = append(comps, comp)
	}
	sort.SliceStable(comps, func(i, j int) bool { return len(comps[i]) > len(comps[j]) })
	return comps
}

// Trim keeps the largest 4-connected component of a resolved lasso. A wobbly
// freehand edge leaves pixels whose centres fall inside a spike of the path
// while the spike's neck covers no centre; those fragments are dropped and
// counted. A second component holding at least MinRegionPixels and a quarter
// of the kept pixels means the path enclosed separate areas, reported as
// ErrDisjointRegion. Kept pixels are returned in row-major order.
func Trim(pixels []Pixel) (kept []Pixel, dropped int, err error) {
	set := make(map[Pixel]struct{}, len(pixels))
	for _, p := range pixels {
		set[p] = struct{}{}
	}
	comps := components(set)
	if len(comps) == 0 {
		return nil, 0, nil
	}
	largest := comps[0]
	if len(comps) > 1 {
		second := len(comps[1])
		if second >= MinRegionPixels && 4*second >= len(largest) {
			return nil, 0, fmt.Errorf("%w: components of %d and %d pixels", ErrDisjointRegion, len(largest), second)
		}
	}
	for _, c := range comps[1:] {
		dropped += len(c)
	}
	kept = make([]Pixel, len(largest))
	copy(kept, largest)
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Y != kept[j].Y {
			return kept[i].Y < kept[j].Y
		}
		return kept[i].X < kept[j].X
	})
	return kept, dropped, nil
}

func sortedPixels(set map[Pixel]struct{}) []Pixel {
	out := make([]Pixel, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}
