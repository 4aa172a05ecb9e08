/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package processing applies an ordered list of spectrum transforms. Each
// step is a pure function of the spectrum and its own parameters; the
// pipeline is a left fold over the list.
package processing

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Step names a processing transform.
type Step string

const (
	OutlierRemoval   Step = "OUTLIER_REMOVAL"
	Filtering        Step = "FILTERING"
	ContinuumRemoval Step = "CONTINUUM_REMOVAL"
)

var (
	ErrUnknownStep = errors.New("processing: unknown step")
	ErrBadSpectrum = errors.New("processing: bad spectrum")
)

// Flag selects a step and its parameters.
type Flag struct {
	Step   Step               `json:"step" yaml:"step"`
	Config map[string]float64 `json:"config,omitempty" yaml:"config,omitempty"`
}

// Spectrum is a value vector over an increasing label axis.
type Spectrum struct {
	X []float64
	Y []float64
}

// Func is one processing step.
type Func func(s Spectrum, cfg map[string]float64) (Spectrum, error)

var steps = map[Step]Func{
	OutlierRemoval:   removeOutliers,
	Filtering:        boxFilter,
	ContinuumRemoval: removeContinuum,
}

// Apply runs flags in order and returns the final spectrum. The input is not
// modified.
func Apply(s Spectrum, flags []Flag) (Spectrum, error) {
	if len(s.X) != len(s.Y) {
		return Spectrum{}, fmt.Errorf("%w: %d labels for %d values", ErrBadSpectrum, len(s.X), len(s.Y))
	}
	out := Spectrum{X: append([]float64(nil), s.X...), Y: append([]float64(nil), s.Y...)}
	for i, f := range flags {
		fn, ok := steps[f.Step]
		if !ok {
			return Spectrum{}, fmt.Errorf("%w: %q at position %d", ErrUnknownStep, f.Step, i)
		}
		var err error
		if out, err = fn(out, f.Config); err != nil {
			return Spectrum{}, fmt.Errorf("%s: %w", f.Step, err)
		}
	}
	return out, nil
}

// StepNames returns the registered steps, sorted.
func StepNames() []Step {
	out := make([]Step, 0, len(steps))
	for k := range steps {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func param(cfg map[string]float64, key string, def float64) float64 {
	if v, ok := cfg[key]; ok {
		return v
	}
	return def
}

// removeOutliers replaces values whose residual from the 3-point running
// median exceeds sigma_threshold standard deviations of all residuals.
func removeOutliers(s Spectrum, cfg map[string]float64) (Spectrum, error) {
	k := param(cfg, "sigma_threshold", 3)
	if k <= 0 {
		return s, fmt.Errorf("%w: sigma_threshold %v", ErrBadSpectrum, k)
	}
	n := len(s.Y)
	if n < 3 {
		return s, nil
	}
	med := make([]float64, n)
	res := make([]float64, n)
	for i := range s.Y {
		lo, hi := max(i-1, 0), min(i+1, n-1)
		w := append([]float64(nil), s.Y[lo:hi+1]...)
		sort.Float64s(w)
		med[i] = w[len(w)/2]
		res[i] = s.Y[i] - med[i]
	}
	var mean, ss float64
	for _, r := range res {
		mean += r
	}
	mean /= float64(n)
	for _, r := range res {
		ss += (r - mean) * (r - mean)
	}
	sigma := math.Sqrt(ss / float64(n))
	if sigma == 0 {
		return s, nil
	}
	y := append([]float64(nil), s.Y...)
	for i, r := range res {
		if math.Abs(r-mean) > k*sigma {
			y[i] = med[i]
		}
	}
	return Spectrum{X: s.X, Y: y}, nil
}

// boxFilter is a centred moving average of filter_width samples; the window
// shrinks at the ends.
func boxFilter(s Spectrum, cfg map[string]float64) (Spectrum, error) {
	w := int(param(cfg, "filter_width", 5))
	if w < 1 {
		return s, fmt.Errorf("%w: filter_width %d", ErrBadSpectrum, w)
	}
	half := w / 2
	n := len(s.Y)
	y := make([]float64, n)
	for i := range s.Y {
		lo, hi := max(i-half, 0), min(i+half, n-1)
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += s.Y[j]
		}
		y[i] = sum / float64(hi-lo+1)
	}
	return Spectrum{X: s.X, Y: y}, nil
}

// removeContinuum divides by the upper convex hull of the spectrum.
func removeContinuum(s Spectrum, _ map[string]float64) (Spectrum, error) {
	n := len(s.Y)
	if n < 2 {
		return s, nil
	}
	for i := 1; i < n; i++ {
		if s.X[i] <= s.X[i-1] {
			return s, fmt.Errorf("%w: labels not increasing at %d", ErrBadSpectrum, i)
		}
	}
	hull := []int{0}
	for i := 1; i < n; i++ {
		for len(hull) >= 2 {
			a, b := hull[len(hull)-2], hull[len(hull)-1]
			// Drop b when it lies on or below the chord a->i.
			cross := (s.X[b]-s.X[a])*(s.Y[i]-s.Y[a]) - (s.Y[b]-s.Y[a])*(s.X[i]-s.X[a])
			if cross < 0 {
				break
			}
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, i)
	}
	y := make([]float64, n)
	h := 0
	for i := range s.Y {
		for h < len(hull)-2 && s.X[hull[h+1]] < s.X[i] {
			h++
		}
		a, b := hull[h], hull[min(h+1, len(hull)-1)]
		cont := s.Y[a]
		if b != a {
			t := (s.X[i] - s.X[a]) / (s.X[b] - s.X[a])
			cont = s.Y[a] + t*(s.Y[b]-s.Y[a])
		}
		if cont == 0 {
			return s, fmt.Errorf("%w: zero continuum at %d", ErrBadSpectrum, i)
		}
		y[i] = s.Y[i] / cont
	}
	return Spectrum{X: s.X, Y: y}, nil
}
