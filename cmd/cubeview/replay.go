/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"cubeview/internal/config"
	"cubeview/internal/journal"
	"cubeview/internal/palette"
	"cubeview/internal/selection"
)

// runReplay lists the journal and rebuilds the measurement view it describes.
func runReplay(ctx context.Context, cfg config.AppConfig, j *journal.Journal, w io.Writer) error {
	events, err := j.Events(ctx, journal.Filter{})
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tAT\tVIEW\tKIND\tENTITY")
	for _, ev := range events {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", ev.Seq, ev.At.Format(time.RFC3339), ev.View, ev.Kind, ev.Entity)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s, err := newScripted(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := journal.Replay(events, s.meas); err != nil {
		return err
	}
	for _, m := range s.meas.Measurements() {
		fmt.Fprintf(w, "%s %s %s\n", m.ID, m.Name, palette.Hex(m.Color))
	}
	fmt.Fprintln(w, s.coord.Summary())
	return nil
}

var _ selection.MeasurementMirror = (*selection.MeasurementController)(nil)
