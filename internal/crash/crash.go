/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic at the process entry into a crash report.
package crash

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "cubeview/internal/log"
	"cubeview/internal/telemetry"
	"cubeview/internal/version"
)

// ReportDirName is created under Session.BaseDir for crash reports.
const ReportDirName = ".cubeview"

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Session describes the running session for a crash report. Every field is
// optional.
type Session struct {
	BaseDir string
	// Summary describes the open views, e.g. cache sizes per display id.
	Summary func() string
	// Closers are closed after the report is written, so stores such as the
	// journal are left consistent.
	Closers []io.Closer
}

// Recover captures a panic, logs it with its stack, writes a report file,
// closes the session's stores and exits with status 2.
//
// Usage: defer crash.Recover(sess)
func Recover(s *Session) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := writeReport(s, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if s != nil {
		for _, c := range s.Closers {
			if err := c.Close(); err != nil {
				l.Error("close on crash failed", slog.Any("err", err))
			}
		}
	}
	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	exitFn(2)
}

func writeReport(s *Session, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if s != nil && s.BaseDir != "" {
		dir = filepath.Join(s.BaseDir, ReportDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405.000")))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "CubeView Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if s != nil {
		if s.BaseDir != "" {
			_, _ = fmt.Fprintf(&buf, "BaseDir: %s\n", s.BaseDir)
		}
		if s.Summary != nil {
			_, _ = fmt.Fprintf(&buf, "Views:\n%s\n", s.Summary())
		}
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	// optionally upload the report (opt-in via env)
	telemetry.Default().UploadCrash(buf.Bytes())
	return path, nil
}
