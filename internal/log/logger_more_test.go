/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestFromEnvAndGetenv(t *testing.T) {
	t.Setenv("CV_LOG_LEVEL", "warn")
	t.Setenv("CV_LOG_FORMAT", "json")
	t.Setenv("CV_LOG_SOURCE", "true")
	t.Setenv("CV_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := getenv("CV_SOME_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}

func TestPrettyTextHandler_Behavior(t *testing.T) {
	var buf bytes.Buffer
	h := &prettyTextHandler{level: slog.LevelWarn, w: &buf, mu: &sync.Mutex{}}
	ctx := context.Background()

	if h.Enabled(ctx, slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("view", "img-1")}).WithGroup("lasso")
	r := slog.NewRecord(time.Now(), slog.LevelError, "degenerate region", 0)
	r.AddAttrs(slog.Int("samples", 2), slog.Float64("area", 0.5), slog.Bool("cached", false))
	if err := h2.Handle(ctx, r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ERR", "degenerate region", " view=img-1", "lasso.samples=2", "lasso.area=0.5", "lasso.cached=false"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "lasso.view") {
		t.Fatalf("attrs added before the group must not carry its prefix: %q", out)
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	m := &multi{hs: []slog.Handler{
		&prettyTextHandler{level: slog.LevelDebug, w: &a, mu: &sync.Mutex{}},
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	}}
	l := slog.New(m)
	l.Info("only pretty")
	l.Error("both")
	if !strings.Contains(a.String(), "only pretty") || !strings.Contains(a.String(), "both") {
		t.Fatalf("pretty handler missed records: %q", a.String())
	}
	if strings.Contains(b.String(), "only pretty") || !strings.Contains(b.String(), "both") {
		t.Fatalf("json handler level filter not honoured: %q", b.String())
	}
}
