/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestLineBranches(t *testing.T) {
	cases := []struct {
		name string
		a, b Pixel
		want []Pixel
	}{
		{"horizontal", Pixel{0, 0}, Pixel{3, 0}, []Pixel{{0, 0}, {1, 0}, {2, 0}, {3, 0}}},
		{"vertical up", Pixel{2, 3}, Pixel{2, 0}, []Pixel{{2, 3}, {2, 2}, {2, 1}, {2, 0}}},
		{"diagonal", Pixel{0, 0}, Pixel{2, 2}, []Pixel{{0, 0}, {1, 1}, {2, 2}}},
		{"low slope", Pixel{0, 0}, Pixel{4, 1}, []Pixel{{0, 0}, {1, 0}, {2, 0}, {3, 1}, {4, 1}}},
		{"single", Pixel{5, 5}, Pixel{5, 5}, []Pixel{{5, 5}}},
	}
	for _, tc := range cases {
		got, err := Line(tc.a, tc.b)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

// Random endpoint pairs: exact endpoints, exact length, 8-connected steps and
// no repeated pixels.
func TestLineProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		a := Pixel{rng.Intn(2001) - 1000, rng.Intn(2001) - 1000}
		b := Pixel{a.X + rng.Intn(2001) - 1000, a.Y + rng.Intn(2001) - 1000}
		if a == b {
			continue
		}
		path, err := Line(a, b)
		if err != nil {
			t.Fatalf("%v -> %v: %v", a, b, err)
		}
		if path[0] != a || path[len(path)-1] != b {
			t.Fatalf("%v -> %v: endpoints %v %v", a, b, path[0], path[len(path)-1])
		}
		if want := max(abs(b.X-a.X), abs(b.Y-a.Y)) + 1; len(path) != want {
			t.Fatalf("%v -> %v: len %d, want %d", a, b, len(path), want)
		}
		seen := map[Pixel]bool{}
		for j, p := range path {
			if seen[p] {
				t.Fatalf("%v -> %v: duplicate %v", a, b, p)
			}
			seen[p] = true
			if j == 0 {
				continue
			}
			q := path[j-1]
			if abs(p.X-q.X) > 1 || abs(p.Y-q.Y) > 1 {
				t.Fatalf("%v -> %v: gap between %v and %v", a, b, q, p)
			}
		}
	}
}
