// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"coursevault.yaml",
	"coursevault.yml",
	"/etc/coursevault/config.yaml",
	"/etc/coursevault/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "COURSEVAULT_CONFIG"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Backup: BackupConfig{
			Dir:         "/var/backups/chamilo",
			LogDir:      "/var/log/coursevault",
			ArchiveKeep: 30,
			LogKeep:     31,
			ExportExt:   "mbz",
		},
		Source: SourceConfig{
			Kind:         "file",
			Path:         "/etc/coursevault/courses.yaml",
			ListQuery:    DefaultListQuery,
			ResolveQuery: DefaultResolveQuery,
		},
		Exporter: ExporterConfig{
			Args:                []string{"{code}"},
			MissingDataPatterns: append([]string(nil), DefaultMissingDataPatterns...),
		},
		Schedule: ScheduleConfig{
			Cron:       "0 2 * * *",
			RunOnStart: false,
		},
		HTTP: HTTPConfig{
			Enabled:         true,
			Listen:          "127.0.0.1:9464",
			RateLimit:       60,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (explicitPath, COURSEVAULT_CONFIG, or a default path)
//  3. Environment Variables: Override any mapped setting
//
// An explicitPath that does not exist is an error; a missing default file is not.
func Load(explicitPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath, err := findConfigFile(explicitPath)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// BACKUP_DIR -> backup.dir, EXPORTER_ARGS -> exporter.args
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile resolves the config file to load. Returns an empty string when
// no file was requested and none of the default paths exist.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicitPath, err)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("config file %s (from %s): %w", envPath, ConfigPathEnvVar, err)
		}
		return envPath, nil
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", nil
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"exporter.args",
	"exporter.bootstrap_args",
	"exporter.missing_data_patterns",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok {
			// Already a slice (defaults or YAML)
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Backup layout and retention
	"backup_dir":          "backup.dir",
	"backup_log_dir":      "backup.log_dir",
	"backup_archive_keep": "backup.archive_keep",
	"backup_log_keep":     "backup.log_keep",
	"backup_export_ext":   "backup.export_ext",

	// Candidate source
	"source_kind":          "source.kind",
	"source_path":          "source.path",
	"source_list_query":    "source.list_query",
	"source_resolve_query": "source.resolve_query",

	// Exporter
	"exporter_command":               "exporter.command",
	"exporter_args":                  "exporter.args",
	"exporter_work_dir":              "exporter.work_dir",
	"exporter_bootstrap_command":     "exporter.bootstrap_command",
	"exporter_bootstrap_args":        "exporter.bootstrap_args",
	"exporter_missing_data_patterns": "exporter.missing_data_patterns",

	// Daemon schedule
	"schedule_cron":         "schedule.cron",
	"schedule_run_on_start": "schedule.run_on_start",

	// HTTP
	"http_enabled":          "http.enabled",
	"http_listen":           "http.listen",
	"http_rate_limit":       "http.rate_limit",
	"http_read_timeout":     "http.read_timeout",
	"http_write_timeout":    "http.write_timeout",
	"http_shutdown_timeout": "http.shutdown_timeout",

	// Metrics
	"metrics_textfile": "metrics.textfile",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - BACKUP_DIR -> backup.dir
//   - EXPORTER_COMMAND -> exporter.command
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	return ""
}
