// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package backup

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingData may be wrapped by exporters to report absent or
	// unreadable course content regardless of the message wording.
	ErrMissingData = errors.New("course source data missing")

	// ErrRunnerIncomplete is returned by Run when no source or exporter is configured.
	ErrRunnerIncomplete = errors.New("runner requires a candidate source and an exporter")
)

// DirectoryError reports that a backup or log directory cannot be created or
// written. It is the only error that aborts a run.
type DirectoryError struct {
	// Kind names the directory in messages. Empty means the backup directory.
	Kind string
	Path string
	Op   string
	Err  error
}

// Directory kinds used in DirectoryError messages.
const (
	BackupDirectory = "backup directory"
	LogDirectory    = "log directory"
)

func (e *DirectoryError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = BackupDirectory
	}
	return fmt.Sprintf("%s %s: %s: %v", kind, e.Path, e.Op, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// CandidateLookupError reports that the exporter context of a course could not be resolved.
type CandidateLookupError struct {
	Code string
	Err  error
}

func (e *CandidateLookupError) Error() string {
	return fmt.Sprintf("course %s: lookup failed: %v", e.Code, e.Err)
}

func (e *CandidateLookupError) Unwrap() error { return e.Err }

// MissingDataError reports that the exporter found the course content absent or corrupt.
type MissingDataError struct {
	Code   string
	Reason string
	Err    error
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("course %s: source data missing: %s", e.Code, e.Reason)
}

func (e *MissingDataError) Unwrap() error { return e.Err }

// Export stages reported by ExportFailure.
const (
	StageBootstrap = "bootstrap"
	StageExport    = "export"
	StageRelocate  = "relocate"
)

// ExportFailure reports any other failure while exporting or relocating a course.
type ExportFailure struct {
	Code  string
	Stage string
	Err   error
}

func (e *ExportFailure) Error() string {
	return fmt.Sprintf("course %s: %s failed: %v", e.Code, e.Stage, e.Err)
}

func (e *ExportFailure) Unwrap() error { return e.Err }

// ArchiveError reports a bundle creation or artifact deletion failure during
// housekeeping. It is logged and never aborts a run.
type ArchiveError struct {
	Path string
	Op   string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }
