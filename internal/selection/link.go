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
	"log/slog"

	"cubeview/internal/domain"
	applog "cubeview/internal/log"
)

// Link connects an image view to the measurement view it feeds. Clicks and
// lassos become measurements; measurements come back as markers; removing a
// measurement removes its marker and polygon.
type Link struct {
	img     RegionProducer
	meas    MeasurementCache
	log     *slog.Logger
	cancels []func()
}

func NewLink(img RegionProducer, meas MeasurementCache) *Link {
	l := &Link{
		img:  img,
		meas: meas,
		log:  applog.WithOperation(applog.WithComponent("link"), img.Name()+"->"+meas.Name()),
	}
	ie, me := img.Events(), meas.Events()
	l.cancels = append(l.cancels,
		ie.PointSelected.Subscribe(l.onPoint),
		ie.RegionSelected.Subscribe(l.onRegion),
		ie.LineSelected.Subscribe(l.onLine),
		me.Added.Subscribe(l.onAdded),
		me.Removed.Subscribe(l.onRemoved),
	)
	return l
}

// Close detaches the link from both views.
func (l *Link) Close() {
	for _, c := range l.cancels {
		c()
	}
	l.cancels = nil
}

func (l *Link) onPoint(ev PointSelected) {
	if _, err := l.meas.AddPoint(ev.Pixel); err != nil {
		l.reject("add_point", err)
	}
}

func (l *Link) onRegion(ev RegionSelected) {
	if _, err := l.meas.AddGroup(ev.ID, ev.Pixels); err != nil {
		// The polygon has no measurement to belong to.
		l.img.RemovePolygon(ev.ID)
		l.reject("add_group", err)
	}
}

func (l *Link) onLine(ev LineSelected) {
	if _, err := l.meas.Trace(ev.Line); err != nil {
		l.reject("trace", err)
	}
}

func (l *Link) onAdded(m domain.Measurement) {
	p := domain.ImagePoint{ID: m.ID, Pixel: m.Centroid, Pos: m.Centroid.Center(), Color: m.Color}
	if err := l.img.PlotPoint(p); err != nil {
		l.reject("plot_point", err)
	}
}

func (l *Link) onRemoved(m domain.Measurement) {
	l.img.RemoveMarker(m.ID)
}

func (l *Link) reject(op string, err error) {
	if errors.Is(err, ErrCapacity) {
		l.log.Info("selection dropped at capacity", slog.String("step", op))
		return
	}
	l.img.Diagnose(op, err)
}
