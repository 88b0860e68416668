// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package backup

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
)

// Config holds the runner's directory layout and retention policy.
type Config struct {
	// Directory receiving per-course export files and consolidated bundles
	BackupDir string

	// Directory receiving run logs and the last-run status file
	LogDir string

	// Number of consolidated bundles kept after each run
	ArchiveKeep int

	// Number of run logs kept, the current run's log included
	LogKeep int

	// Extension of per-course export files, without the dot
	ExportExt string

	// Case-insensitive failure message fragments that classify an export
	// failure as missing source data
	MissingDataPatterns []string

	// Deflate level for bundles (flate.HuffmanOnly through flate.BestCompression)
	CompressionLevel int

	// Write {LogDir}/last_run.json after each run
	WriteStatusFile bool
}

// DefaultConfig returns the stock layout for a Chamilo host.
func DefaultConfig() Config {
	return Config{
		BackupDir:   "/var/backups/chamilo",
		LogDir:      "/var/log/coursevault",
		ArchiveKeep: 30,
		LogKeep:     31,
		ExportExt:   "mbz",
		MissingDataPatterns: []string{
			"no such file",
			"not found",
			"failed to open stream",
			"is not readable",
			"missing",
		},
		CompressionLevel: flate.DefaultCompression,
		WriteStatusFile:  true,
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.BackupDir == "" {
		return fmt.Errorf("backup directory is required")
	}
	if c.LogDir == "" {
		return fmt.Errorf("log directory is required")
	}
	if filepath.Clean(c.BackupDir) == filepath.Clean(c.LogDir) {
		return fmt.Errorf("backup and log directories must differ")
	}
	if c.ArchiveKeep < 1 {
		return fmt.Errorf("archive keep count must be at least 1, got %d", c.ArchiveKeep)
	}
	if c.LogKeep < 1 {
		return fmt.Errorf("log keep count must be at least 1, got %d", c.LogKeep)
	}
	if !validExportExt(c.ExportExt) {
		return fmt.Errorf("invalid export extension %q", c.ExportExt)
	}
	if c.ExportExt == strings.TrimPrefix(bundleExt, ".") {
		return fmt.Errorf("export extension must differ from the bundle extension")
	}
	if c.CompressionLevel < flate.HuffmanOnly || c.CompressionLevel > flate.BestCompression {
		return fmt.Errorf("compression level must be between %d and %d, got %d",
			flate.HuffmanOnly, flate.BestCompression, c.CompressionLevel)
	}
	return nil
}

// validExportExt accepts "mbz" or dotted extensions such as "tar.gz", but not
// ".mbz", "a..b" or anything with a path separator.
func validExportExt(ext string) bool {
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		return false
	}
	for _, part := range strings.Split(ext, ".") {
		if part == "" {
			return false
		}
	}
	return true
}
