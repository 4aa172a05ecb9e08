/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"cubeview/internal/config"
	"cubeview/internal/crash"
	"cubeview/internal/domain"
	"cubeview/internal/geometry"
	"cubeview/internal/journal"
	"cubeview/internal/palette"
	"cubeview/internal/processing"
	"cubeview/internal/selection"
	"cubeview/internal/telemetry"
)

type demoOptions struct {
	Out       string // overlay PNG; empty skips rendering
	Journal   *journal.Journal
	Telemetry *telemetry.Client
	Session   *crash.Session
}

type demoResult struct {
	Measurements []domain.Measurement
	Traces       []selection.Trace
	Diagnostics  []selection.Diagnostic
	Notices      []selection.Notice
}

// runDemo plays a fixed selection session over a synthetic cube: two pixel
// clicks, one lasso region, one line trace and a rename.
func runDemo(cfg config.AppConfig, opts demoOptions, w io.Writer) (demoResult, error) {
	s, err := newScripted(cfg)
	if err != nil {
		return demoResult{}, err
	}
	defer s.Close()
	if opts.Session != nil {
		opts.Session.Summary = s.coord.Summary
	}
	if opts.Journal != nil {
		defer opts.Journal.Attach(s.meas)()
	}
	if opts.Telemetry != nil {
		defer opts.Telemetry.WatchMeasurements(s.meas)()
		defer opts.Telemetry.WatchImage(s.img)()
	}
	var res demoResult
	s.meas.Events().Traced.Subscribe(func(tr selection.Trace) { res.Traces = append(res.Traces, tr) })

	s.click(geometry.Pt{X: 10.5, Y: 10.5}, 0)
	s.click(geometry.Pt{X: 50.2, Y: 12.7}, 0)
	s.lasso(
		geometry.Pt{X: 20, Y: 20},
		geometry.Pt{X: 32, Y: 20},
		geometry.Pt{X: 32, Y: 30},
		geometry.Pt{X: 20, Y: 30},
	)
	s.line(geometry.Pt{X: 4.5, Y: 40.5}, geometry.Pt{X: 60.5, Y: 44.5})

	ms := s.meas.Measurements()
	if len(ms) > 0 {
		if err := s.meas.Rename(ms[0].ID, "bright corner"); err != nil {
			return demoResult{}, err
		}
	}
	res.Measurements = s.meas.Measurements()
	res.Diagnostics = s.diags
	res.Notices = s.notices

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tCENTROID\tPIXELS\tCOLOR\tCONTINUUM MIN")
	for _, m := range res.Measurements {
		lo := "-"
		if sp, err := s.meas.Process(m.ID, []processing.Flag{{Step: processing.ContinuumRemoval}}); err == nil && len(sp.Y) > 0 {
			v := sp.Y[0]
			for _, y := range sp.Y {
				v = min(v, y)
			}
			lo = fmt.Sprintf("%.4f", v)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d,%d\t%d\t%s\t%s\n", m.Name, m.Kind, m.Centroid.X, m.Centroid.Y, max(len(m.Pixels), 1), palette.Hex(m.Color), lo)
	}
	if err := tw.Flush(); err != nil {
		return demoResult{}, err
	}
	for _, tr := range res.Traces {
		fmt.Fprintf(w, "line %v -> %v: %d pixels\n", tr.Line.Start, tr.Line.End, len(tr.Line.Pixels))
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintln(w, "diagnostic:", d)
	}
	for _, n := range res.Notices {
		fmt.Fprintln(w, "notice:", n.Msg)
	}
	fmt.Fprintln(w, s.coord.Summary())

	if opts.Out != "" {
		for _, m := range res.Measurements {
			s.canvas.Annotate(m.ID, m.Centroid.Center(), m.Name, m.Color)
		}
		if err := s.canvas.SavePNG(opts.Out); err != nil {
			return demoResult{}, err
		}
		fmt.Fprintln(w, "overlay written to", opts.Out)
	}
	return res, nil
}
