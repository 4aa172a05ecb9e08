/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	applog "cubeview/internal/log"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	BaseDir        string `yaml:"base_dir"` // journal and exports live here; empty means the working directory
}

type SelectionConfig struct {
	MaxMeasurements int    `yaml:"max_measurements"`
	DoubleClickMs   int    `yaml:"double_click_ms"`
	Palette         string `yaml:"palette"`      // named palette, e.g. "colorbrewer:Dark2"
	PaletteFile     string `yaml:"palette_file"` // JSON palette file, wins over Palette
}

type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"` // SQLite path or postgres:// URL; empty means <base_dir>/.cubeview/journal.sqlite
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	General       GeneralConfig   `yaml:"general"`
	Selection     SelectionConfig `yaml:"selection"`
	Journal       JournalConfig   `yaml:"journal"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false},
		Selection:     SelectionConfig{MaxMeasurements: 8, DoubleClickMs: 300, Palette: "colorbrewer:Dark2"},
		Journal:       JournalConfig{Enabled: false},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath      = "CV_CONFIG"
	EnvTelemetryOptIn  = "CV_TELEMETRY_OPT_IN"
	EnvBaseDir         = "CV_BASE_DIR"
	EnvMaxMeasurements = "CV_MAX_MEASUREMENTS"
	EnvDoubleClickMs   = "CV_DOUBLE_CLICK_MS"
	EnvPalette         = "CV_PALETTE"
	EnvPaletteFile     = "CV_PALETTE_FILE"
	EnvJournal         = "CV_JOURNAL"
	EnvJournalDSN      = "CV_JOURNAL_DSN"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "CV_LOG_LEVEL"
	EnvLogFormat = "CV_LOG_FORMAT"
	EnvLogSource = "CV_LOG_SOURCE"
	EnvLogFile   = "CV_LOG_FILE"
)

var ErrInvalid = errors.New("config: invalid value")

// ConfigPath returns the per-user config file path. CV_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "CubeView")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "CubeView")
	default: // linux and others
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "cubeview")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "cubeview")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, merges
// environment overrides and validates the result. A malformed file is an
// error; a missing one is not.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	}
	applyEnvOverrides(&cfg)
	return cfg, cfg.Validate()
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate rejects values the selection engine cannot run with.
func (c AppConfig) Validate() error {
	if c.Selection.MaxMeasurements <= 0 {
		return fmt.Errorf("%w: selection.max_measurements=%d", ErrInvalid, c.Selection.MaxMeasurements)
	}
	if c.Selection.DoubleClickMs <= 0 {
		return fmt.Errorf("%w: selection.double_click_ms=%d", ErrInvalid, c.Selection.DoubleClickMs)
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if strings.TrimSpace(src.General.BaseDir) != "" {
		dst.General.BaseDir = strings.TrimSpace(src.General.BaseDir)
	}
	if src.Selection.MaxMeasurements != 0 {
		dst.Selection.MaxMeasurements = src.Selection.MaxMeasurements
	}
	if src.Selection.DoubleClickMs != 0 {
		dst.Selection.DoubleClickMs = src.Selection.DoubleClickMs
	}
	if strings.TrimSpace(src.Selection.Palette) != "" {
		dst.Selection.Palette = strings.TrimSpace(src.Selection.Palette)
	}
	if strings.TrimSpace(src.Selection.PaletteFile) != "" {
		dst.Selection.PaletteFile = strings.TrimSpace(src.Selection.PaletteFile)
	}
	dst.Journal.Enabled = src.Journal.Enabled
	if strings.TrimSpace(src.Journal.DSN) != "" {
		dst.Journal.DSN = strings.TrimSpace(src.Journal.DSN)
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvBaseDir)); v != "" {
		cfg.General.BaseDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxMeasurements)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Selection.MaxMeasurements = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDoubleClickMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Selection.DoubleClickMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvPalette)); v != "" {
		cfg.Selection.Palette = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPaletteFile)); v != "" {
		cfg.Selection.PaletteFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournal)); v != "" {
		cfg.Journal.Enabled = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournalDSN)); v != "" {
		cfg.Journal.DSN = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envByKey = map[string]string{
	"general.telemetry_opt_in":   EnvTelemetryOptIn,
	"general.base_dir":           EnvBaseDir,
	"selection.max_measurements": EnvMaxMeasurements,
	"selection.double_click_ms":  EnvDoubleClickMs,
	"selection.palette":          EnvPalette,
	"selection.palette_file":     EnvPaletteFile,
	"journal.enabled":            EnvJournal,
	"journal.dsn":                EnvJournalDSN,
	"logging.level":              EnvLogLevel,
	"logging.format":             EnvLogFormat,
	"logging.source":             EnvLogSource,
	"logging.file":               EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envByKey[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// DoubleClick returns the double-click window.
func (s SelectionConfig) DoubleClick() time.Duration {
	return time.Duration(s.DoubleClickMs) * time.Millisecond
}

// LogOptions converts the logging section for applog.Init.
func (l LoggingConfig) LogOptions() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}
