/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interaction

import (
	"strings"

	"cubeview/internal/geometry"
)

// Button identifies the pressed pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)

// Modifier is a bit set of held keyboard modifiers.
type Modifier uint8

const (
	ModNone  Modifier = 0
	ModCtrl  Modifier = 1 << 0
	ModAlt   Modifier = 1 << 1
	ModShift Modifier = 1 << 2
)

func (m Modifier) String() string {
	if m == ModNone {
		return "none"
	}
	var parts []string
	if m&ModCtrl != 0 {
		parts = append(parts, "ctrl")
	}
	if m&ModAlt != 0 {
		parts = append(parts, "alt")
	}
	if m&ModShift != 0 {
		parts = append(parts, "shift")
	}
	return strings.Join(parts, "+")
}

// PointerEvent is a press in data coordinates.
type PointerEvent struct {
	Pos    geometry.Pt
	Button Button
	Mods   Modifier
	Double bool
}

// Intent is what a click asks for.
type Intent int

const (
	IntentNone Intent = iota
	IntentPoint
	IntentLasso
	IntentLine
)

// Classify maps a click to an intent. Only the left button counts and the
// modifier set must match exactly: none selects a pixel, Ctrl drives the
// lasso, Alt drives the line.
func Classify(ev PointerEvent) Intent {
	if ev.Button != ButtonLeft {
		return IntentNone
	}
	switch ev.Mods {
	case ModNone:
		return IntentPoint
	case ModCtrl:
		return IntentLasso
	case ModAlt:
		return IntentLine
	}
	return IntentNone
}
