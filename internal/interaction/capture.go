/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interaction

import "cubeview/internal/geometry"

// LassoCapture collects raw pointer samples of a freehand path. Samples are
// kept as delivered, duplicates included.
type LassoCapture struct {
	samples []geometry.Pt
	active  bool
}

func (l *LassoCapture) Start(p geometry.Pt) {
	l.samples = append(l.samples[:0], p)
	l.active = true
}

// Add appends a sample while capturing.
func (l *LassoCapture) Add(p geometry.Pt) {
	if l.active {
		l.samples = append(l.samples, p)
	}
}

func (l *LassoCapture) Active() bool { return l.active }

// Finish stops capturing and returns a copy of the samples.
func (l *LassoCapture) Finish() []geometry.Pt {
	out := append([]geometry.Pt(nil), l.samples...)
	l.Reset()
	return out
}

func (l *LassoCapture) Reset() {
	l.samples = l.samples[:0]
	l.active = false
}

// Samples returns a copy of the path so far.
func (l *LassoCapture) Samples() []geometry.Pt {
	return append([]geometry.Pt(nil), l.samples...)
}

// LineCapture tracks the two endpoints of a line gesture.
type LineCapture struct {
	start, end geometry.Pt
	active     bool
}

func (l *LineCapture) Start(p geometry.Pt) {
	l.start, l.end = p, p
	l.active = true
}

// Move updates the free endpoint.
func (l *LineCapture) Move(p geometry.Pt) {
	if l.active {
		l.end = p
	}
}

func (l *LineCapture) Active() bool { return l.active }

// Finish stops capturing and returns the endpoints as pixels.
func (l *LineCapture) Finish() (a, b geometry.Pixel) {
	a, b = l.start.Pixel(), l.end.Pixel()
	l.Reset()
	return a, b
}

func (l *LineCapture) Reset() {
	l.active = false
	l.start, l.end = geometry.Pt{}, geometry.Pt{}
}
