/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package processing

import (
	"errors"
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestApplyEmptyIsIdentity(t *testing.T) {
	in := Spectrum{X: []float64{1, 2}, Y: []float64{3, 4}}
	out, err := Apply(in, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	out.Y[0] = 99
	if in.Y[0] != 3 {
		t.Fatalf("Apply must not alias its input")
	}
}

func TestApplyRejectsUnknownStep(t *testing.T) {
	_, err := Apply(Spectrum{X: []float64{1}, Y: []float64{1}}, []Flag{{Step: "SMOOTHIFY"}})
	if !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("expected ErrUnknownStep, got %v", err)
	}
	if _, err := Apply(Spectrum{X: []float64{1}}, nil); !errors.Is(err, ErrBadSpectrum) {
		t.Fatalf("expected ErrBadSpectrum for length mismatch, got %v", err)
	}
}

func TestOutlierRemovalReplacesSpike(t *testing.T) {
	y := []float64{1, 1, 1, 1, 10, 1, 1, 1, 1, 1}
	x := make([]float64, len(y))
	for i := range x {
		x[i] = float64(i)
	}
	out, err := Apply(Spectrum{X: x, Y: y}, []Flag{{Step: OutlierRemoval, Config: map[string]float64{"sigma_threshold": 2}}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Y[4] != 1 {
		t.Fatalf("spike not removed: %v", out.Y)
	}
}

func TestBoxFilter(t *testing.T) {
	out, err := Apply(Spectrum{X: []float64{0, 1, 2, 3}, Y: []float64{0, 3, 0, 3}},
		[]Flag{{Step: Filtering, Config: map[string]float64{"filter_width": 3}}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := []float64{1.5, 1, 2, 1.5}
	for i := range want {
		if !near(out.Y[i], want[i]) {
			t.Fatalf("y[%d] = %v, want %v", i, out.Y[i], want[i])
		}
	}
}

func TestContinuumRemoval(t *testing.T) {
	s := Spectrum{X: []float64{0, 1, 2, 3, 4}, Y: []float64{1, 1.5, 1, 2.5, 3}}
	out, err := Apply(s, []Flag{{Step: ContinuumRemoval}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Bands 1 and 3 lie on the chord from 0 to 4; band 2 sits below it.
	if !near(out.Y[0], 1) || !near(out.Y[1], 1) || !near(out.Y[4], 1) {
		t.Fatalf("hull points should map to 1: %v", out.Y)
	}
	if out.Y[2] >= 1 {
		t.Fatalf("absorption not below continuum: %v", out.Y)
	}
	for _, v := range out.Y {
		if v > 1+1e-9 {
			t.Fatalf("value above continuum: %v", out.Y)
		}
	}
	if _, err := Apply(Spectrum{X: []float64{1, 1}, Y: []float64{1, 1}}, []Flag{{Step: ContinuumRemoval}}); !errors.Is(err, ErrBadSpectrum) {
		t.Fatalf("expected ErrBadSpectrum for non-increasing labels, got %v", err)
	}
}

func TestPipelineIsLeftFold(t *testing.T) {
	s := Spectrum{X: []float64{0, 1, 2, 3, 4}, Y: []float64{2, 2, 2, 2, 2}}
	out, err := Apply(s, []Flag{
		{Step: Filtering, Config: map[string]float64{"filter_width": 3}},
		{Step: ContinuumRemoval},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for i, v := range out.Y {
		if !near(v, 1) {
			t.Fatalf("y[%d] = %v, want 1", i, v)
		}
	}
	if len(StepNames()) != 3 {
		t.Fatalf("unexpected steps %v", StepNames())
	}
}
