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
	"math/rand"
	"sort"
	"testing"
)

func TestResolveSquare(t *testing.T) {
	sq := []Pt{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	got := Resolve(sq, image.Rectangle{})
	if len(got) != 16 {
		t.Fatalf("len = %d, want 16", len(got))
	}
	i := 0
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got[i] != (Pixel{x, y}) {
				t.Fatalf("pixel %d = %v, want {%d %d}", i, got[i], x, y)
			}
			i++
		}
	}
}

func TestResolveRawSamplesWithDuplicates(t *testing.T) {
	path := []Pt{{0, 0}, {0, 0}, {2, 0}, {4, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 4}}
	if got := Resolve(path, image.Rectangle{}); len(got) != 16 {
		t.Fatalf("duplicated samples changed the result: %d pixels", len(got))
	}
}

func TestResolveClipsToRaster(t *testing.T) {
	sq := []Pt{{-3, -3}, {4, -3}, {4, 4}, {-3, 4}}
	got := Resolve(sq, image.Rect(0, 0, 2, 10))
	if len(got) != 8 {
		t.Fatalf("len = %d, want 8", len(got))
	}
	for _, p := range got {
		if p.X < 0 || p.X >= 2 || p.Y < 0 {
			t.Fatalf("pixel %v outside raster", p)
		}
	}
}

func TestResolveDegenerate(t *testing.T) {
	cases := map[string][]Pt{
		"too few":   {{0, 0}, {3, 3}},
		"collinear": {{0, 0}, {2, 2}, {5, 5}},
		"zero area": {{1, 1}, {1, 1}, {1, 1}},
		"nan":       {{0, 0}, {math.NaN(), 2}, {4, 4}},
	}
	for name, poly := range cases {
		if got := Resolve(poly, image.Rectangle{}); len(got) != 0 {
			t.Fatalf("%s: expected no pixels, got %v", name, got)
		}
	}
	// A bow-tie crosses itself; even-odd keeps both lobes without panicking.
	bow := []Pt{{0, 0}, {6, 6}, {6, 0}, {0, 6}}
	if got := Resolve(bow, image.Rectangle{}); len(got) == 0 || len(got) >= 36 {
		t.Fatalf("bow-tie produced %d pixels", len(got))
	}
}

func TestContainsHalfOpenEdges(t *testing.T) {
	sq := []Pt{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	if !Contains(sq, Pt{0, 1}) || !Contains(sq, Pt{1, 0}) {
		t.Fatalf("left and top edges are inside")
	}
	if Contains(sq, Pt{2, 1}) || Contains(sq, Pt{1, 2}) {
		t.Fatalf("right and bottom edges are outside")
	}
}

// Random convex polygons: every returned pixel lies within the bounding box
// and satisfies the centre rule, and no pixel in the box is missed.
func TestResolveConvexProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 200; iter++ {
		poly := randomConvex(rng)
		bb, _ := Bounds(poly)
		got := Resolve(poly, image.Rectangle{})
		in := map[Pixel]bool{}
		for _, p := range got {
			c := p.Center()
			if !bb.Contains(c) {
				t.Fatalf("iter %d: %v outside bbox %+v", iter, p, bb)
			}
			if !Contains(poly, c) {
				t.Fatalf("iter %d: %v fails inclusion", iter, p)
			}
			in[p] = true
		}
		for y := int(math.Floor(bb.Y)); y <= int(bb.Y+bb.H); y++ {
			for x := int(math.Floor(bb.X)); x <= int(bb.X+bb.W); x++ {
				p := Pixel{x, y}
				if !in[p] && Contains(poly, p.Center()) {
					t.Fatalf("iter %d: missed %v", iter, p)
				}
			}
		}
	}
}

func randomConvex(rng *rand.Rand) []Pt {
	n := 3 + rng.Intn(8)
	cx, cy := 50*rng.Float64(), 50*rng.Float64()
	r := 2 + 48*rng.Float64()
	angles := make([]float64, n)
	for i := range angles {
		angles[i] = 2 * math.Pi * rng.Float64()
	}
	sort.Float64s(angles)
	poly := make([]Pt, n)
	for i, a := range angles {
		poly[i] = Pt{cx + r*math.Cos(a), cy + r*math.Sin(a)}
	}
	return poly
}
