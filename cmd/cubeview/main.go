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
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cubeview/internal/config"
	"cubeview/internal/crash"
	"cubeview/internal/journal"
	applog "cubeview/internal/log"
	"cubeview/internal/telemetry"
	"cubeview/internal/ui"
	"cubeview/internal/version"
)

func usage() {
	fmt.Println("CubeView - multi-band cube selection engine")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  cubeview version|-v|--version        Show version")
	fmt.Println("  cubeview demo [<out.png>]            Run a scripted selection session and write the overlay")
	fmt.Println("  cubeview replay [<dsn>]              Print a journal and rebuild its measurements")
	fmt.Println("  cubeview ui [<baseDir>]              Launch desktop UI (build with -tags fyne for full UI)")
}

func openJournal(cfg config.AppConfig, dsn string) (*journal.Journal, error) {
	if dsn == "" {
		dsn = cfg.Journal.DSN
	}
	if dsn == "" {
		dsn = journal.DefaultPath(cfg.General.BaseDir)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return journal.Open(ctx, dsn)
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(2)
	}
	applog.Init(cfg.Logging.LogOptions())
	l := applog.WithComponent("cli")
	sess := &crash.Session{BaseDir: cfg.General.BaseDir}
	defer crash.Recover(sess)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("CubeView")
			fmt.Println(version.String())
			return
		case "demo":
			out := filepath.Join(cfg.General.BaseDir, "cubeview-demo.png")
			if len(args) >= 3 {
				out = args[2]
			}
			var j *journal.Journal
			if cfg.Journal.Enabled {
				if j, err = openJournal(cfg, ""); err != nil {
					fail(l, "open journal failed", err)
				}
				defer j.Close()
				sess.Closers = append(sess.Closers, j)
			}
			tel := telemetry.Default()
			if !cfg.General.TelemetryOptIn {
				tel = nil
			}
			res, err := runDemo(cfg, demoOptions{Out: out, Journal: j, Telemetry: tel, Session: sess}, os.Stdout)
			if err != nil {
				fail(l, "demo failed", err)
			}
			l.Info("demo finished", slog.String("out", out), slog.Int("measurements", len(res.Measurements)))
			if tel != nil {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				tel.Flush(ctx)
				cancel()
			}
			return
		case "replay":
			var dsn string
			if len(args) >= 3 {
				dsn = args[2]
			}
			j, err := openJournal(cfg, dsn)
			if err != nil {
				fail(l, "open journal failed", err)
			}
			defer j.Close()
			sess.Closers = append(sess.Closers, j)
			if err := runReplay(context.Background(), cfg, j, os.Stdout); err != nil {
				fail(l, "replay failed", err)
			}
			return
		case "ui":
			var dir string
			if len(args) >= 3 {
				dir = args[2]
			}
			if err := ui.Run(dir); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}
