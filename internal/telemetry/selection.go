/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"errors"

	"cubeview/internal/domain"
	"cubeview/internal/geometry"
	"cubeview/internal/selection"
)

// WatchMeasurements reports additions and capacity/palette notices of a
// measurement view. Only kinds and counts leave the process.
func (c *Client) WatchMeasurements(v selection.MeasurementLeader) (stop func()) {
	ev := v.Events()
	cancels := []func(){
		ev.Added.Subscribe(func(m domain.Measurement) {
			c.Event("measurement_added", map[string]any{"kind": m.Kind.String()})
		}),
		ev.Notices.Subscribe(func(n selection.Notice) {
			c.Event(n.Kind.String(), nil)
		}),
		ev.Traced.Subscribe(func(tr selection.Trace) {
			c.Event("line_traced", map[string]any{"pixels": len(tr.Line.Pixels)})
		}),
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

// WatchImage reports finished, trimmed and rejected gestures of an image view.
func (c *Client) WatchImage(v selection.ImageLeader) (stop func()) {
	ev := v.Events()
	cancels := []func(){
		ev.RegionSelected.Subscribe(func(r selection.RegionSelected) {
			c.Event("region_selected", map[string]any{"pixels": len(r.Pixels), "vertices": len(r.Vertices)})
		}),
		ev.Diagnostics.Subscribe(func(d selection.Diagnostic) {
			if errors.Is(d.Err, geometry.ErrRegionTrimmed) {
				c.Event("region_trimmed", nil)
				return
			}
			c.Event("gesture_rejected", map[string]any{"op": d.Op})
		}),
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}
