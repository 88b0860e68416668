// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps a thread-safe singleton validator with the custom tags needed by the
// configuration layer and translates field errors into readable messages.
//
// # Custom Tags
//
//   - cronspec: a standard five-field cron expression or descriptor
//     ("@daily", "@every 6h"), parsed with robfig/cron
//   - fileext: a bare file extension such as "mbz" (no leading dot, no separators)
//
// # Usage
//
//	type BackupConfig struct {
//	    Dir         string `validate:"required"`
//	    ArchiveKeep int    `validate:"min=1"`
//	    ExportExt   string `validate:"required,fileext"`
//	}
//
//	if err := validation.ValidateStruct(&cfg); err != nil {
//	    return fmt.Errorf("invalid configuration: %w", err)
//	}
//
// Field names in messages are namespaced below the root struct, so a failure on
// Config.Backup.ArchiveKeep reads "Backup.ArchiveKeep must be at least 1".
package validation
