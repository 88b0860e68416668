// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/tomtom215/coursevault/internal/validation"
)

// ErrNoExporter is returned by ValidateForExport when no export command is configured.
var ErrNoExporter = errors.New("EXPORTER_COMMAND is required to export courses")

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateSource(); err != nil {
		return err
	}

	return c.validateBackup()
}

// validateSource checks source settings that depend on the source kind.
func (c *Config) validateSource() error {
	if c.Source.Kind != "duckdb" {
		return nil
	}
	if c.Source.ListQuery == "" {
		return errors.New("SOURCE_LIST_QUERY is required when SOURCE_KIND=duckdb")
	}
	if c.Source.ResolveQuery == "" {
		return errors.New("SOURCE_RESOLVE_QUERY is required when SOURCE_KIND=duckdb")
	}
	return nil
}

// validateBackup rejects an export extension that would collide with the
// bundle or log patterns, since retention would then sweep the wrong files.
func (c *Config) validateBackup() error {
	switch c.Backup.ExportExt {
	case "zip", "log":
		return fmt.Errorf("BACKUP_EXPORT_EXT must not be %q", c.Backup.ExportExt)
	}
	if filepath.Clean(c.Backup.Dir) == filepath.Clean(c.Backup.LogDir) {
		return errors.New("BACKUP_DIR and BACKUP_LOG_DIR must be different directories")
	}
	return nil
}

// ValidateForExport checks the settings needed by commands that invoke the
// exporter. Housekeeping-only commands do not call it.
func (c *Config) ValidateForExport() error {
	if c.Exporter.Command == "" {
		return ErrNoExporter
	}
	return nil
}
