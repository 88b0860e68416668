// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Backup   BackupConfig   `koanf:"backup"`
	Source   SourceConfig   `koanf:"source"`
	Exporter ExporterConfig `koanf:"exporter"`
	Schedule ScheduleConfig `koanf:"schedule"`
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// BackupConfig holds backup directory layout and retention settings.
type BackupConfig struct {
	// Dir receives per-course export files and consolidated bundles.
	Dir string `koanf:"dir" validate:"required"`

	// LogDir receives one run log per invocation plus last_run.json.
	LogDir string `koanf:"log_dir" validate:"required"`

	// ArchiveKeep is the number of consolidated bundles kept after each run.
	ArchiveKeep int `koanf:"archive_keep" validate:"min=1"`

	// LogKeep is the number of run logs kept, the current run's log included.
	LogKeep int `koanf:"log_keep" validate:"min=1"`

	// ExportExt is the extension of per-course export files, without the dot.
	ExportExt string `koanf:"export_ext" validate:"required,fileext"`
}

// SourceConfig selects where backup candidates come from.
type SourceConfig struct {
	// Kind is "file" (YAML or JSON manifest) or "duckdb".
	Kind string `koanf:"kind" validate:"oneof=file duckdb"`

	// Path is the manifest file or the DuckDB database file.
	Path string `koanf:"path" validate:"required"`

	// ListQuery must return (code, active) rows in enumeration order. DuckDB only.
	ListQuery string `koanf:"list_query"`

	// ResolveQuery takes the course code as its only parameter and must return
	// (id, code, title, directory). DuckDB only.
	ResolveQuery string `koanf:"resolve_query"`
}

// ExporterConfig configures the external export command.
type ExporterConfig struct {
	// Command is the executable invoked once per course.
	Command string `koanf:"command"`

	// Args are passed to Command; "{code}" is replaced by the course code.
	Args []string `koanf:"args"`

	// WorkDir is the working directory of export and bootstrap commands.
	WorkDir string `koanf:"work_dir"`

	// BootstrapCommand runs once before the first export of a run.
	BootstrapCommand string   `koanf:"bootstrap_command"`
	BootstrapArgs    []string `koanf:"bootstrap_args"`

	// MissingDataPatterns are case-insensitive substrings of exporter failure
	// messages that mark a course as skipped for missing source data.
	MissingDataPatterns []string `koanf:"missing_data_patterns" validate:"dive,required"`
}

// ScheduleConfig holds daemon mode scheduling settings.
type ScheduleConfig struct {
	// Cron is a standard five-field expression or descriptor such as "@daily".
	Cron string `koanf:"cron" validate:"cronspec"`

	// RunOnStart triggers one run immediately when the daemon starts.
	RunOnStart bool `koanf:"run_on_start"`
}

// HTTPConfig holds the daemon's read-only HTTP surface settings.
type HTTPConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Listen          string        `koanf:"listen" validate:"required,hostname_port"`
	RateLimit       int           `koanf:"rate_limit" validate:"min=0"` // requests per minute per client, 0 disables
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// MetricsConfig holds Prometheus export settings for one-shot runs.
type MetricsConfig struct {
	// Textfile, when set, receives the metrics registry after a one-shot run.
	Textfile string `koanf:"textfile"`
}

// LoggingConfig holds process logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"loglevel"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DefaultMissingDataPatterns are the exporter failure fragments that indicate
// absent or unreadable course content.
var DefaultMissingDataPatterns = []string{
	"no such file",
	"not found",
	"failed to open stream",
	"is not readable",
	"missing",
}

// Default DuckDB queries against a Chamilo-style course table.
const (
	DefaultListQuery    = "SELECT code, visibility <> 0 AS active FROM course ORDER BY id"
	DefaultResolveQuery = "SELECT id, code, title, directory FROM course WHERE code = ?"
)
