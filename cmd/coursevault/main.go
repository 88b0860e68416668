// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

// Command coursevault backs up every active course of a learning platform,
// consolidates the per-course exports into dated bundles and prunes old
// bundles and run logs.
//
// # Commands
//
//	coursevault run [--course CODE] [--json]   one backup run
//	coursevault prune                          housekeeping only, no exports
//	coursevault schedule                       cron daemon with status API
//	coursevault candidates [--course CODE]     list courses from the source
//	coursevault status [--json]                print the last recorded run
//	coursevault version
//
// # Configuration
//
// Settings are layered (highest priority wins):
//   - Command line flags (--backup-dir, --log-dir)
//   - Environment variables (BACKUP_DIR, EXPORTER_COMMAND, ...), including a
//     .env file in the working directory
//   - Config file (--config, COURSEVAULT_CONFIG, ./coursevault.yaml,
//     /etc/coursevault/config.yaml)
//   - Built-in defaults
//
// # Exit Codes
//
//	0  run completed, including runs where some courses failed
//	1  backup or log directory unusable, or another runtime error
//	2  invalid configuration or command line
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the run: the course being exported finishes,
// remaining courses are not attempted and the run log records how many
// were skipped.
package main

import "os"

func main() {
	os.Exit(Execute())
}
