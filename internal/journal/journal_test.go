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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"cubeview/internal/cube"
	"cubeview/internal/domain"
	"cubeview/internal/geometry"
	"cubeview/internal/selection"

	_ "modernc.org/sqlite"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	j, err := Open(ctx, DefaultPath(t.TempDir()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func newView(t *testing.T, name string) *selection.MeasurementController {
	t.Helper()
	mc, err := selection.NewMeasurementController(name, selection.NewAppState(""), selection.MeasurementOptions{Source: cube.Synthetic(8, 8, 4)})
	if err != nil {
		t.Fatalf("NewMeasurementController: %v", err)
	}
	return mc
}

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), " "); !errors.Is(err, ErrNoDSN) {
		t.Fatalf("expected ErrNoDSN, got %v", err)
	}
}

func TestOpenCreatesSchema(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		j, err := Open(ctx, DefaultPath(dir))
		if err != nil {
			t.Fatalf("Open #%d: %v", i, err)
		}
		v, err := j.SchemaVersion(ctx)
		if err != nil || v != schemaVersion {
			t.Fatalf("schema = %d, %v", v, err)
		}
		_ = j.Close()
	}
	if _, err := os.Stat(filepath.Join(dir, DirName, FileName)); err != nil {
		t.Fatalf("journal file missing: %v", err)
	}
}

func TestMigrationFromV1(t *testing.T) {
	path := DefaultPath(t.TempDir())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", filepath.ToSlash(path)))
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range []string{
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL)`,
		`INSERT INTO version VALUES(1, 1, 'old', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`,
		`CREATE TABLE events (seq INTEGER PRIMARY KEY AUTOINCREMENT, recorded_at TEXT NOT NULL, session TEXT NOT NULL, view_name TEXT NOT NULL, kind TEXT NOT NULL, entity TEXT, payload TEXT)`,
		`INSERT INTO events (recorded_at, session, view_name, kind) VALUES('2025-01-01T00:00:00Z', 's', 'spectra', 'reset')`,
	} {
		if _, err := db.Exec(q); err != nil {
			t.Fatalf("seed v1: %v (%s)", err, q)
		}
	}
	_ = db.Close()

	ctx := context.Background()
	j, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()
	if v, _ := j.SchemaVersion(ctx); v != 2 {
		t.Fatalf("schema after migration = %d", v)
	}
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_events_view'`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("index missing: n=%d err=%v", n, err)
	}
	evs, err := j.Events(ctx, Filter{})
	if err != nil || len(evs) != 1 || evs[0].Kind != KindReset {
		t.Fatalf("old rows lost: %v %v", evs, err)
	}
}

func TestAttachRecordsAndReplays(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	lead := newView(t, "spectra")
	detach := j.Attach(lead)

	a, err := lead.AddPoint(geometry.Pixel{X: 1, Y: 1})
	if err != nil {
		t.Fatal(err)
	}
	b, err := lead.AddGroup(domain.NewID(), []geometry.Pixel{{X: 2, Y: 2}, {X: 3, Y: 2}})
	if err != nil {
		t.Fatal(err)
	}
	if err := lead.Rename(a.ID, "basalt"); err != nil {
		t.Fatal(err)
	}
	if err := lead.Remove(b.ID); err != nil {
		t.Fatal(err)
	}
	line, _ := geometry.Line(geometry.Pixel{X: 0, Y: 0}, geometry.Pixel{X: 3, Y: 1})
	if _, err := lead.Trace(domain.LineProfile{ID: domain.NewID(), Pixels: line}); err != nil {
		t.Fatal(err)
	}

	evs, err := j.Events(ctx, Filter{View: "spectra"})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	var kinds []Kind
	for _, ev := range evs {
		kinds = append(kinds, ev.Kind)
		if ev.Session != j.Session() {
			t.Fatalf("session %q", ev.Session)
		}
	}
	want := []Kind{KindAdded, KindAdded, KindRenamed, KindRemoved, KindTrace}
	if !reflect.DeepEqual(kinds, want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}

	target := newView(t, "replayed")
	if err := Replay(evs, target); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !reflect.DeepEqual(target.Measurements(), lead.Measurements()) {
		t.Fatalf("replayed %+v\nwant %+v", target.Measurements(), lead.Measurements())
	}

	if err := lead.ResetCache(); err != nil {
		t.Fatal(err)
	}
	detach()
	if _, err := lead.AddPoint(geometry.Pixel{X: 4, Y: 4}); err != nil {
		t.Fatal(err)
	}
	evs, _ = j.Events(ctx, Filter{Session: j.Session()})
	if len(evs) != 6 || evs[5].Kind != KindReset {
		t.Fatalf("after detach: %d events", len(evs))
	}
	fresh := newView(t, "fresh")
	if err := Replay(evs, fresh); err != nil || fresh.Len() != 0 {
		t.Fatalf("replay with reset: len %d err %v", fresh.Len(), err)
	}
	if other, _ := j.Events(ctx, Filter{View: "elsewhere"}); len(other) != 0 {
		t.Fatalf("view filter leaked %d events", len(other))
	}
}

func TestPayloadMatchesSchema(t *testing.T) {
	j := openTemp(t)
	lead := newView(t, "spectra")
	defer j.Attach(lead)()
	if _, err := lead.AddPoint(geometry.Pixel{X: 1, Y: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := lead.AddGroup(domain.NewID(), []geometry.Pixel{{X: 0, Y: 0}}); err != nil {
		t.Fatal(err)
	}
	evs, err := j.Events(context.Background(), Filter{})
	if err != nil || len(evs) != 2 {
		t.Fatalf("events: %d %v", len(evs), err)
	}
	schemaLoader := gojsonschema.NewBytesLoader(payloadSchema)
	for _, ev := range evs {
		res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(ev.Payload))
		if err != nil {
			t.Fatalf("validate: %v", err)
		}
		if !res.Valid() {
			t.Fatalf("payload %s invalid: %v", ev.Payload, res.Errors())
		}
	}
}

func TestSchemaCoversMeasurementFields(t *testing.T) {
	var schema struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(payloadSchema, &schema); err != nil {
		t.Fatalf("schema: %v", err)
	}
	typ := reflect.TypeOf(domain.Measurement{})
	fields := map[string]bool{}
	for i := 0; i < typ.NumField(); i++ {
		name, _, _ := strings.Cut(typ.Field(i).Tag.Get("json"), ",")
		fields[name] = true
		if _, ok := schema.Properties[name]; !ok {
			t.Fatalf("schema lacks measurement field %q", name)
		}
	}
	for name := range schema.Properties {
		if !fields[name] {
			t.Fatalf("schema property %q has no measurement field", name)
		}
	}
}

func TestDecodeMeasurementRejectsBadPayloads(t *testing.T) {
	const id = `"0b7c5a52-5a43-4a43-9d2b-3d1f0b0c9a11"`
	cases := map[string]string{
		"kind":   `{"id":` + id + `,"kind":"blob","name":"x","values":[1],"centroid":{"X":0,"Y":0},"color":{"R":1,"G":2,"B":3,"A":255}}`,
		"color":  `{"id":` + id + `,"kind":"point","name":"x","values":[1],"centroid":{"X":0,"Y":0},"color":{"R":300,"G":2,"B":3,"A":255}}`,
		"id":     `{"id":"nope","kind":"point","name":"x","values":[1],"centroid":{"X":0,"Y":0},"color":{"R":1,"G":2,"B":3,"A":255}}`,
		"shape":  `{"id":` + id + `,"kind":"group","name":"x","values":[1],"centroid":{"X":0,"Y":0},"pixels":null,"color":{"R":1,"G":2,"B":3,"A":255}}`,
		"syntax": `{`,
	}
	for name, payload := range cases {
		if _, err := DecodeMeasurement([]byte(payload)); !errors.Is(err, ErrCorruptEvent) {
			t.Fatalf("%s: expected ErrCorruptEvent, got %v", name, err)
		}
	}
	ok := `{"id":` + id + `,"kind":"point","name":"x","values":[1,2],"labels":[400,410],"centroid":{"X":3,"Y":4},"pixels":null,"color":{"R":1,"G":2,"B":3,"A":255}}`
	m, err := DecodeMeasurement([]byte(ok))
	if err != nil {
		t.Fatalf("valid payload: %v", err)
	}
	if m.Kind != domain.KindPoint || m.Centroid != (geometry.Pixel{X: 3, Y: 4}) || m.Pixels != nil {
		t.Fatalf("decoded %+v", m)
	}
	if err := Replay([]Event{{Seq: 9, Kind: "mystery"}}, newView(t, "x")); !errors.Is(err, ErrCorruptEvent) {
		t.Fatalf("unknown kind: %v", err)
	}
}

// TestPostgresJournal runs only when CV_JOURNAL_PG_DSN points at a database.
func TestPostgresJournal(t *testing.T) {
	dsn := os.Getenv("CV_JOURNAL_PG_DSN")
	if dsn == "" {
		t.Skip("CV_JOURNAL_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	j, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()
	if err := j.Record(ctx, Event{View: "pg-test", Kind: KindReset}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	evs, err := j.Events(ctx, Filter{Session: j.Session()})
	if err != nil || len(evs) != 1 {
		t.Fatalf("Events: %d %v", len(evs), err)
	}
}

func TestPlaceholderRewrite(t *testing.T) {
	j := &Journal{dialect: postgresDialect}
	if got := j.q(`SELECT ? , ?`); got != `SELECT $1 , $2` {
		t.Fatalf("q = %q", got)
	}
	j.dialect = sqliteDialect
	if got := j.q(`SELECT ?`); got != `SELECT ?` {
		t.Fatalf("q = %q", got)
	}
}
