// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

// Package logging provides the two log sinks used by Coursevault.
//
// # Process Logger
//
// A global zerolog logger configured once from main:
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("backup_dir", dir).Msg("Backup run starting")
//	logging.Error().Err(err).Msg("Scheduler stopped")
//
// Run-scoped loggers carry a short run id:
//
//	ctx = logging.ContextWithRunID(ctx, logging.GenerateRunID())
//	logging.Ctx(ctx).Info().Msg("Consolidation finished")
//
// An slog adapter (NewSlogLogger) bridges the logger to libraries that only
// accept *slog.Logger, such as sutureslog.
//
// # Run Log
//
// RunLog is the operator-facing, per-run text file:
//
//	[2026-10-18 02:00:01] Starting backup run
//	[2026-10-18 02:00:04] WARNING: [MATH101] Skipped, source data missing: file not found ...
//	[2026-10-18 02:00:04] DETAIL: [MATH101] file not found: /var/courses/MATH101/document/a.pdf
//
// Each line is appended with one write under an exclusive flock, and mirrored
// to the process logger at the matching level.
//
// # Configuration
//
// Environment Variables:
//
//	LOG_LEVEL   - trace, debug, info, warn, error, disabled (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
package logging
