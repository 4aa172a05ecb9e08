/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package journal records measurement cache mutations in SQL and replays
// them into a measurement view. SQLite is the default store; a postgres://
// DSN selects PostgreSQL through pgx.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "cubeview/internal/log"
	"cubeview/internal/version"

	// PostgreSQL through database/sql
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	DirName  = ".cubeview"
	FileName = "journal.sqlite"

	// schemaVersion tracks the journal schema. Bump it and add a step to
	// runMigrations for every schema change.
	schemaVersion = 2
)

var ErrNoDSN = errors.New("journal: dsn is required")

type dialect int

const (
	sqliteDialect dialect = iota
	postgresDialect
)

// DefaultPath returns the journal file under baseDir.
func DefaultPath(baseDir string) string {
	return filepath.Join(baseDir, DirName, FileName)
}

// Journal is an open event store. Session tags every event recorded
// through this handle.
type Journal struct {
	db      *sql.DB
	dialect dialect
	session string
	log     *slog.Logger
}

// Open connects to dsn, creating and migrating the schema as needed. A DSN
// starting with postgres:// or postgresql:// uses pgx; anything else is a
// SQLite file path.
func Open(ctx context.Context, dsn string) (*Journal, error) {
	l := applog.WithOperation(applog.WithComponent("journal"), "open")
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrNoDSN
	}
	j := &Journal{session: uuid.NewString(), log: applog.WithComponent("journal")}
	var err error
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		j.dialect = postgresDialect
		j.db, err = sql.Open("pgx", dsn)
	} else {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
		j.db, err = sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(dsn)))
		if err == nil {
			j.db.SetMaxOpenConns(1)
		}
	}
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := j.db.PingContext(ctx); err != nil {
		_ = j.db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}
	if j.dialect == sqliteDialect {
		if _, err := j.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			l.Warn("enable WAL failed", slog.Any("err", err))
		}
	}
	if err := j.ensureSchema(ctx); err != nil {
		_ = j.db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := j.runMigrations(ctx); err != nil {
		_ = j.db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("journal ready", slog.String("session", j.session), slog.Bool("postgres", j.dialect == postgresDialect))
	return j, nil
}

func (j *Journal) Session() string { return j.session }

func (j *Journal) Close() error { return j.db.Close() }

// q rewrites ? placeholders for the active dialect.
func (j *Journal) q(query string) string {
	if j.dialect != postgresDialect {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (j *Journal) ensureSchema(ctx context.Context) error {
	seq := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if j.dialect == postgresDialect {
		seq = "BIGSERIAL PRIMARY KEY"
	}
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			seq         ` + seq + `,
			recorded_at TEXT NOT NULL,
			session     TEXT NOT NULL,
			view_name   TEXT NOT NULL,
			kind        TEXT NOT NULL,
			entity      TEXT,
			payload     TEXT
		)`,
	}
	for _, stmt := range ddl {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := j.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// A fresh store starts at 1 and migrates forward like an old one.
		if _, err := j.db.ExecContext(ctx, j.q(`INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`), version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := j.db.ExecContext(ctx, j.q(`UPDATE version SET app=?, updated_at=? WHERE id=1`), version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// SchemaVersion reads the stored schema version.
func (j *Journal) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := j.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func (j *Journal) runMigrations(ctx context.Context) error {
	cur, err := j.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if cur > schemaVersion {
		j.log.Warn("journal schema is newer than this build", slog.Int("schema", cur))
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_events_view ON events(view_name, seq)`,
				`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session)`,
			}
		}
		tx, err := j.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, j.q(`UPDATE version SET schema=?, updated_at=? WHERE id=1`), next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		j.log.Info("journal migrated", slog.Int("schema", next))
		cur = next
	}
	return nil
}
