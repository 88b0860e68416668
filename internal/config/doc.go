// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

/*
Package config provides configuration loading and validation for Coursevault.

# Configuration Sources

Configuration is layered with koanf, later layers overriding earlier ones:
  - Built-in defaults
  - YAML file: --config flag, COURSEVAULT_CONFIG, ./coursevault.yaml,
    /etc/coursevault/config.yaml
  - Environment variables (a .env file is loaded into the environment by the CLI)

# Environment Variables

Backup (BackupConfig):
  - BACKUP_DIR: Export and bundle directory (default: /var/backups/chamilo)
  - BACKUP_LOG_DIR: Run log directory (default: /var/log/coursevault)
  - BACKUP_ARCHIVE_KEEP: Bundles kept (default: 30)
  - BACKUP_LOG_KEEP: Run logs kept, current run included (default: 31)
  - BACKUP_EXPORT_EXT: Per-course export extension (default: mbz)

Candidate Source (SourceConfig):
  - SOURCE_KIND: file or duckdb (default: file)
  - SOURCE_PATH: Manifest or database path (default: /etc/coursevault/courses.yaml)
  - SOURCE_LIST_QUERY, SOURCE_RESOLVE_QUERY: DuckDB queries

Exporter (ExporterConfig):
  - EXPORTER_COMMAND: Export executable (required for run and schedule)
  - EXPORTER_ARGS: Comma-separated arguments, {code} is substituted (default: {code})
  - EXPORTER_WORK_DIR: Working directory for export commands
  - EXPORTER_BOOTSTRAP_COMMAND, EXPORTER_BOOTSTRAP_ARGS: One-time environment bootstrap
  - EXPORTER_MISSING_DATA_PATTERNS: Comma-separated failure fragments

Daemon (ScheduleConfig, HTTPConfig):
  - SCHEDULE_CRON: Cron expression (default: "0 2 * * *")
  - SCHEDULE_RUN_ON_START: Run once at startup (default: false)
  - HTTP_ENABLED: Serve status and metrics (default: true)
  - HTTP_LISTEN: Listen address (default: 127.0.0.1:9464)
  - HTTP_RATE_LIMIT: Requests per minute per client, 0 disables (default: 60)

Metrics and Logging:
  - METRICS_TEXTFILE: Prometheus textfile written after one-shot runs
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json or console (default: json)
  - LOG_CALLER: Include caller file:line (default: false)

# Usage

	cfg, err := config.Load(flagConfigPath)
	if err != nil {
	    return err
	}
	if err := cfg.ValidateForExport(); err != nil {
	    return err
	}
*/
package config
