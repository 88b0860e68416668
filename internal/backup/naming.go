// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package backup

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout formats run and consolidation timestamps in artifact names.
const TimestampLayout = "2006-01-02_15-04-05"

const (
	artifactPrefix = "backup_"
	bundleExt      = ".zip"
	runLogExt      = ".log"
)

// FormatTimestamp renders t for use in artifact names.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ExportFileName returns the name of a relocated per-course export file:
// {code}_backup_{timestamp}.{ext}.
func ExportFileName(code, timestamp, ext string) string {
	return fmt.Sprintf("%s_%s%s.%s", sanitizeCode(code), artifactPrefix, timestamp, ext)
}

// BundleName returns the name of a consolidated bundle: backup_{timestamp}.zip.
// A positive seq adds a _N suffix for bundles created within the same second.
func BundleName(timestamp string, seq int) string {
	if seq > 0 {
		return fmt.Sprintf("%s%s_%d%s", artifactPrefix, timestamp, seq, bundleExt)
	}
	return artifactPrefix + timestamp + bundleExt
}

// RunLogName returns the name of a run log file: backup_{timestamp}.log.
func RunLogName(timestamp string) string {
	return artifactPrefix + timestamp + runLogExt
}

// IsBundle reports whether name matches the consolidated bundle pattern.
func IsBundle(name string) bool {
	return strings.HasPrefix(name, artifactPrefix) && strings.HasSuffix(name, bundleExt)
}

// IsRunLog reports whether name matches the run log pattern.
func IsRunLog(name string) bool {
	return strings.HasPrefix(name, artifactPrefix) && strings.HasSuffix(name, runLogExt)
}

// IsExportFile reports whether name is a per-course export file with extension ext.
// Hidden files (in-progress copies) never match.
func IsExportFile(name, ext string) bool {
	return !strings.HasPrefix(name, ".") && strings.HasSuffix(name, "."+ext)
}

// sanitizeCode keeps a course code usable as a file name component.
func sanitizeCode(code string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, code)
	// A leading dot would hide the file from consolidation.
	if strings.HasPrefix(safe, ".") {
		safe = "_" + safe[1:]
	}
	return safe
}
