/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"cubeview/internal/domain"
	"cubeview/internal/selection"
)

//go:embed payload.schema.json
var payloadSchema []byte

var ErrCorruptEvent = errors.New("journal: corrupt event")

// Kind names a recorded mutation.
type Kind string

const (
	KindAdded   Kind = "added"
	KindRemoved Kind = "removed"
	KindRenamed Kind = "renamed"
	KindReset   Kind = "reset"
	KindTrace   Kind = "trace"
)

// Event is one journal row. Payload holds the measurement for added
// events, {"name":...} for renames and the line profile for traces.
type Event struct {
	Seq     int64
	At      time.Time
	Session string
	View    string
	Kind    Kind
	Entity  uuid.UUID
	Payload json.RawMessage
}

// Filter narrows Events. Zero fields match everything.
type Filter struct {
	View    string
	Session string
}

const recordTimeout = 2 * time.Second

// Record appends ev, stamping the session and time when unset.
func (j *Journal) Record(ctx context.Context, ev Event) error {
	if ev.Session == "" {
		ev.Session = j.session
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	var entity, payload sql.NullString
	if ev.Entity != uuid.Nil {
		entity = sql.NullString{String: ev.Entity.String(), Valid: true}
	}
	if len(ev.Payload) > 0 {
		payload = sql.NullString{String: string(ev.Payload), Valid: true}
	}
	_, err := j.db.ExecContext(ctx, j.q(`INSERT INTO events (recorded_at, session, view_name, kind, entity, payload) VALUES(?, ?, ?, ?, ?, ?)`),
		ev.At.Format(time.RFC3339Nano), ev.Session, ev.View, string(ev.Kind), entity, payload)
	if err != nil {
		return fmt.Errorf("record %s: %w", ev.Kind, err)
	}
	return nil
}

// Events returns matching events in recording order.
func (j *Journal) Events(ctx context.Context, f Filter) ([]Event, error) {
	var (
		where []string
		args  []any
	)
	if f.View != "" {
		where, args = append(where, "view_name = ?"), append(args, f.View)
	}
	if f.Session != "" {
		where, args = append(where, "session = ?"), append(args, f.Session)
	}
	query := `SELECT seq, recorded_at, session, view_name, kind, entity, payload FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"
	rows, err := j.db.QueryContext(ctx, j.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var (
			ev              Event
			at, kind        string
			entity, payload sql.NullString
		)
		if err := rows.Scan(&ev.Seq, &at, &ev.Session, &ev.View, &kind, &entity, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = Kind(kind)
		if ev.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("%w: seq %d time %q", ErrCorruptEvent, ev.Seq, at)
		}
		if entity.Valid {
			if ev.Entity, err = uuid.Parse(entity.String); err != nil {
				return nil, fmt.Errorf("%w: seq %d entity %q", ErrCorruptEvent, ev.Seq, entity.String)
			}
		}
		if payload.Valid {
			ev.Payload = json.RawMessage(payload.String)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Attach records every mutation of a measurement view until the returned
// function is called. Write failures are logged and never reach the view.
func (j *Journal) Attach(view selection.MeasurementLeader) (detach func()) {
	l := j.log.With(slog.String("view", view.Name()))
	rec := func(ev Event) {
		ev.View = view.Name()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := j.Record(ctx, ev); err != nil {
			l.Error("journal write failed", slog.Any("err", err))
		}
	}
	withPayload := func(kind Kind, id uuid.UUID, v any) {
		b, err := json.Marshal(v)
		if err != nil {
			l.Error("encode payload failed", slog.String("kind", string(kind)), slog.Any("err", err))
			return
		}
		rec(Event{Kind: kind, Entity: id, Payload: b})
	}
	ev := view.Events()
	cancels := []func(){
		ev.Added.Subscribe(func(m domain.Measurement) { withPayload(KindAdded, m.ID, m) }),
		ev.Removed.Subscribe(func(m domain.Measurement) { rec(Event{Kind: KindRemoved, Entity: m.ID}) }),
		ev.Renamed.Subscribe(func(r selection.Renamed) {
			withPayload(KindRenamed, r.ID, struct {
				Name string `json:"name"`
			}{r.Name})
		}),
		ev.Reset.Subscribe(func(struct{}) { rec(Event{Kind: KindReset}) }),
		ev.Traced.Subscribe(func(tr selection.Trace) { withPayload(KindTrace, tr.Line.ID, tr.Line) }),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

var measurementSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(payloadSchema))
})

// DecodeMeasurement validates and decodes an added-event payload.
func DecodeMeasurement(payload []byte) (domain.Measurement, error) {
	schema, err := measurementSchema()
	if err != nil {
		return domain.Measurement{}, fmt.Errorf("load payload schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return domain.Measurement{}, fmt.Errorf("%w: %v", ErrCorruptEvent, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return domain.Measurement{}, fmt.Errorf("%w: %s", ErrCorruptEvent, strings.Join(msgs, "; "))
	}
	var m domain.Measurement
	if err := json.Unmarshal(payload, &m); err != nil {
		return domain.Measurement{}, fmt.Errorf("%w: %v", ErrCorruptEvent, err)
	}
	if err := m.Validate(); err != nil {
		return domain.Measurement{}, fmt.Errorf("%w: %v", ErrCorruptEvent, err)
	}
	return m, nil
}

// Replay applies events to a measurement view through its mirror API, so
// colors and names come back exactly as recorded. Trace events carry no
// cache state and are skipped.
func Replay(events []Event, into selection.MeasurementMirror) error {
	for _, ev := range events {
		switch ev.Kind {
		case KindAdded:
			m, err := DecodeMeasurement(ev.Payload)
			if err != nil {
				return fmt.Errorf("seq %d: %w", ev.Seq, err)
			}
			into.MirrorAdd(m)
		case KindRemoved:
			into.MirrorRemove(ev.Entity)
		case KindRenamed:
			var p struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				return fmt.Errorf("%w: seq %d: %v", ErrCorruptEvent, ev.Seq, err)
			}
			into.MirrorRename(ev.Entity, p.Name)
		case KindReset:
			into.MirrorReset()
		case KindTrace:
		default:
			return fmt.Errorf("%w: seq %d kind %q", ErrCorruptEvent, ev.Seq, ev.Kind)
		}
	}
	return nil
}
