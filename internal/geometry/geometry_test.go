/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import (
	"math"
	"testing"
)

func TestRectContainsAndUnion(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	u := r.Union(R(0, 0, 5, 5))
	if u.X != 0 || u.Y != 0 || u.W != 110 || u.H != 70 {
		t.Fatalf("unexpected union: %+v", u)
	}
}

func TestAffineRoundTrip(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 {
		t.Fatalf("unexpected transform result: %+v", p)
	}
	back := m.Invert().Apply(p)
	if back.X != 1 || back.Y != 1 {
		t.Fatalf("inverse did not round trip: %+v", back)
	}
	if Scale(0, 1).Invert() != Identity {
		t.Fatalf("singular matrix should invert to identity")
	}
}

func TestBoundsRejectsNaN(t *testing.T) {
	nan := math.NaN()
	if _, ok := Bounds([]Pt{{0, 0}, {nan, 1}}); ok {
		t.Fatalf("expected NaN coordinate to be rejected")
	}
	if _, ok := Bounds(nil); ok {
		t.Fatalf("expected empty input to be rejected")
	}
}

func TestCentroid(t *testing.T) {
	c := Centroid([]Pixel{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {3, 3}})
	if c != (Pixel{1, 1}) {
		t.Fatalf("centroid = %v, want {1 1}", c)
	}
	if Centroid(nil) != (Pixel{}) {
		t.Fatalf("empty centroid should be zero")
	}
}

func TestPtPixelFloors(t *testing.T) {
	if got := (Pt{12.9, 7.01}).Pixel(); got != (Pixel{12, 7}) {
		t.Fatalf("got %v", got)
	}
	if got := (Pt{-0.5, 0}).Pixel(); got != (Pixel{-1, 0}) {
		t.Fatalf("negative coordinates must floor: %v", got)
	}
}
