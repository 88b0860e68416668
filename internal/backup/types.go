// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package backup

import (
	"context"
	"time"
)

// Candidate is a course eligible for backup, as reported by a Source.
// It is a read-only snapshot taken at the start of each run.
type Candidate struct {
	Code   string `json:"code"`
	Active bool   `json:"active"`
}

// Scope is the candidate-scoped context the exporter works against: the
// "current course" for the duration of one export call.
type Scope struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Title     string `json:"title,omitempty"`
	Directory string `json:"directory,omitempty"`
}

// Source enumerates backup candidates and resolves a course code into the
// scope the exporter needs.
type Source interface {
	// ListCandidates returns all candidates in enumeration order.
	ListCandidates(ctx context.Context) ([]Candidate, error)

	// Resolve looks up the exporter context for a course code.
	Resolve(ctx context.Context, code string) (*Scope, error)
}

// DiagnosticLevel classifies a diagnostic raised by the exporter while it runs.
type DiagnosticLevel int

const (
	DiagnosticNotice DiagnosticLevel = iota
	DiagnosticWarning
	// DiagnosticFatal escalates the export into a failure.
	DiagnosticFatal
)

// String returns the lower-case name of the level.
func (l DiagnosticLevel) String() string {
	switch l {
	case DiagnosticWarning:
		return "warning"
	case DiagnosticFatal:
		return "fatal"
	default:
		return "notice"
	}
}

// DiagnosticFunc receives exporter diagnostics. It is only valid for the
// duration of the Export call it was passed to.
type DiagnosticFunc func(level DiagnosticLevel, message string)

// ExportRequest is the input of a single export call.
type ExportRequest struct {
	Scope       *Scope
	Diagnostics DiagnosticFunc
}

// Exporter produces one archive file for a course and returns its path.
type Exporter interface {
	Export(ctx context.Context, req ExportRequest) (string, error)
}

// Bootstrapper performs the one-time environment initialization the exporter
// depends on.
type Bootstrapper interface {
	Bootstrap(ctx context.Context) error
}

// RunLogger is the run-scoped log sink. *logging.RunLog implements it.
type RunLogger interface {
	Log(message string)
	Logf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Detailf(format string, args ...interface{})
}

// OutcomeKind is the classification of a single course export.
type OutcomeKind string

const (
	OutcomeSuccess            OutcomeKind = "success"
	OutcomeSkippedMissingData OutcomeKind = "skipped_missing_data"
	OutcomeFailed             OutcomeKind = "failed"
)

// ExportOutcome is the result of driving one candidate through the exporter.
type ExportOutcome struct {
	Code            string      `json:"code"`
	Kind            OutcomeKind `json:"outcome"`
	ArchivePath     string      `json:"archive_path,omitempty"`
	Reason          string      `json:"reason,omitempty"`
	DurationSeconds float64     `json:"duration_seconds"`

	// Err is the classified error (*MissingDataError, *ExportFailure or
	// *CandidateLookupError) for non-success outcomes.
	Err error `json:"-"`
}

// RunContext is created once at the start of a run and shared by every step of it.
type RunContext struct {
	RunID     string
	Timestamp string
	StartedAt time.Time
	BackupDir string
	LogFile   string
	Log       RunLogger
}

// RunStatus is the final status of a run.
type RunStatus string

const (
	RunStatusCompleted      RunStatus = "completed"
	RunStatusDirectoryError RunStatus = "directory_error"
)

// Summary describes a finished run.
type Summary struct {
	RunID        string    `json:"run_id"`
	RunTimestamp string    `json:"run_timestamp"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	BackupDir    string    `json:"backup_dir"`
	LogFile      string    `json:"log_file"`
	Status       RunStatus `json:"status"`

	// HousekeepingOnly is set for runs that pruned and consolidated without exporting.
	HousekeepingOnly bool `json:"housekeeping_only,omitempty"`

	// Error holds the directory error, or the candidate listing error of an
	// otherwise completed run.
	Error string `json:"error,omitempty"`

	Considered         int `json:"considered"`
	Succeeded          int `json:"succeeded"`
	Failed             int `json:"failed"`
	SkippedMissingData int `json:"skipped_missing_data"`

	DurationSeconds float64         `json:"duration_seconds"`
	Outcomes        []ExportOutcome `json:"outcomes,omitempty"`
}

// record adds an outcome to the tallies. Missing-data skips count as failures
// and are also reported separately.
func (s *Summary) record(o ExportOutcome) {
	s.Considered++
	s.Outcomes = append(s.Outcomes, o)

	switch o.Kind {
	case OutcomeSuccess:
		s.Succeeded++
	case OutcomeSkippedMissingData:
		s.SkippedMissingData++
		s.Failed++
	default:
		s.Failed++
	}
}
