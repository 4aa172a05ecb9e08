/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import (
	"errors"
	"fmt"
	"image"
)

var ErrImageSizeMismatch = errors.New("selection: image size mismatch")

// AppState is the context shared by the controllers of one window. It is
// passed explicitly at construction.
type AppState struct {
	BaseDir string
	Model   *SelectionModel

	imageSize image.Point
}

func NewAppState(baseDir string) *AppState {
	return &AppState{BaseDir: baseDir, Model: NewSelectionModel()}
}

// CheckImageSize records the first raster size and rejects later rasters of a
// different size.
func (a *AppState) CheckImageSize(size image.Point) error {
	if a.imageSize == (image.Point{}) {
		a.imageSize = size
		return nil
	}
	if size != a.imageSize {
		return fmt.Errorf("%w: have %dx%d, got %dx%d", ErrImageSizeMismatch, a.imageSize.X, a.imageSize.Y, size.X, size.Y)
	}
	return nil
}

func (a *AppState) ImageSize() image.Point { return a.imageSize }

// SelectionModel counts originating selections and fans out bulk resets.
type SelectionModel struct {
	measPlots   int
	imagePoints int

	Reset Stream[struct{}]
}

func NewSelectionModel() *SelectionModel { return &SelectionModel{} }

func (m *SelectionModel) MeasPlotAdded()   { m.measPlots++ }
func (m *SelectionModel) ImagePointAdded() { m.imagePoints++ }

// Counts returns the plotted measurement and image point counters.
func (m *SelectionModel) Counts() (measPlots, imagePoints int) {
	return m.measPlots, m.imagePoints
}

// InitiateReset zeroes the counters and notifies every subscribed view.
func (m *SelectionModel) InitiateReset() {
	m.measPlots, m.imagePoints = 0, 0
	m.Reset.Emit(struct{}{})
}
