/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package interaction turns raw pointer input into gestures: it tracks the
// per-view drawing mode, classifies modified clicks, separates single from
// double clicks and collects lasso and line samples.
package interaction

import (
	"errors"
	"fmt"
)

// Mode is the drawing state of one view.
type Mode int

const (
	Collect Mode = iota
	Lasso
	Line
)

func (m Mode) String() string {
	switch m {
	case Collect:
		return "collect"
	case Lasso:
		return "lasso"
	case Line:
		return "line"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

var (
	// ErrGestureInFlight rejects a start while another gesture is drawing.
	ErrGestureInFlight = errors.New("interaction: gesture in flight")
	// ErrNotDrawing rejects a finish when no gesture is drawing.
	ErrNotDrawing = errors.New("interaction: not drawing")
	// ErrWrongGesture rejects finishing a gesture other than the active one.
	ErrWrongGesture = errors.New("interaction: wrong gesture")
	ErrInvalidMode  = errors.New("interaction: invalid mode")
)

// Machine guards the Collect/Lasso/Line transitions of a single view.
// Rejected transitions leave the state untouched.
type Machine struct {
	mode Mode
}

func NewMachine() *Machine { return &Machine{mode: Collect} }

func (m *Machine) Mode() Mode    { return m.mode }
func (m *Machine) Drawing() bool { return m.mode != Collect }

// Begin moves from Collect into a drawing mode.
func (m *Machine) Begin(mode Mode) error {
	if mode != Lasso && mode != Line {
		return fmt.Errorf("%w: begin %s", ErrInvalidMode, mode)
	}
	if m.mode != Collect {
		return fmt.Errorf("%w: %s active, cannot start %s", ErrGestureInFlight, m.mode, mode)
	}
	m.mode = mode
	return nil
}

// Finish returns to Collect from the given drawing mode.
func (m *Machine) Finish(mode Mode) error {
	switch {
	case m.mode == Collect:
		return fmt.Errorf("%w: finish %s", ErrNotDrawing, mode)
	case m.mode != mode:
		return fmt.Errorf("%w: %s active, cannot finish %s", ErrWrongGesture, m.mode, mode)
	}
	m.mode = Collect
	return nil
}

// Cancel abandons any gesture and reports the mode that was active.
func (m *Machine) Cancel() Mode {
	prev := m.mode
	m.mode = Collect
	return prev
}
