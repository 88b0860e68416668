// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

/*
runlog.go - Run-Scoped Log Sink

Every backup run owns exactly one plain-text log file. Lines are written as

	[YYYY-MM-DD HH:MM:SS] message

with the severity carried in the message body (WARNING:, ERROR:, DETAIL:).
Each line is a single append write taken under an exclusive advisory lock, so
two processes sharing a log file never interleave partial lines.

Every line is mirrored to the process zerolog logger at the matching level.
*/

//nolint:staticcheck // File documentation, not package doc
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RunLogTimeLayout is the timestamp layout at the start of every run log line.
const RunLogTimeLayout = "2006-01-02 15:04:05"

// Severity is the severity recorded in a run log line.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	// SeverityDetail carries supplementary text for a preceding line, such as
	// the untruncated exporter message behind a warning.
	SeverityDetail
)

func (s Severity) prefix() string {
	switch s {
	case SeverityWarning:
		return "WARNING: "
	case SeverityError:
		return "ERROR: "
	case SeverityDetail:
		return "DETAIL: "
	default:
		return ""
	}
}

// RunLog appends timestamped lines to the log file of a single run.
type RunLog struct {
	path   string
	file   *os.File
	mu     sync.Mutex
	now    func() time.Time
	mirror zerolog.Logger
}

// OpenRunLog opens (creating if needed) the log file at path in append mode.
// The parent directory is created when missing.
func OpenRunLog(path string, runID string) (*RunLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", filepath.Dir(path), err)
	}

	//nolint:gosec // G304: path is derived from configured log directory
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log %s: %w", path, err)
	}

	mirror := WithComponent("runlog")
	if runID != "" {
		mirror = mirror.With().Str("run_id", runID).Logger()
	}

	return &RunLog{
		path:   path,
		file:   file,
		now:    time.Now,
		mirror: mirror,
	}, nil
}

// Path returns the path of the run log file.
func (l *RunLog) Path() string {
	return l.path
}

// SetClock overrides the clock used for line timestamps.
func (l *RunLog) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Log appends an informational line.
func (l *RunLog) Log(message string) {
	l.write(SeverityInfo, message)
}

// Logf appends an informational line built with fmt.Sprintf.
func (l *RunLog) Logf(format string, args ...interface{}) {
	l.write(SeverityInfo, fmt.Sprintf(format, args...))
}

// Warnf appends a WARNING line.
func (l *RunLog) Warnf(format string, args ...interface{}) {
	l.write(SeverityWarning, fmt.Sprintf(format, args...))
}

// Errorf appends an ERROR line.
func (l *RunLog) Errorf(format string, args ...interface{}) {
	l.write(SeverityError, fmt.Sprintf(format, args...))
}

// Detailf appends a DETAIL line.
func (l *RunLog) Detailf(format string, args ...interface{}) {
	l.write(SeverityDetail, fmt.Sprintf(format, args...))
}

// Write appends a line with an explicit severity.
func (l *RunLog) Write(severity Severity, message string) {
	l.write(severity, message)
}

func (l *RunLog) write(severity Severity, message string) {
	l.mirrorEvent(severity).Msg(message)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}

	// A message with embedded newlines would break the one-line-per-event format.
	message = strings.ReplaceAll(message, "\n", " ")
	line := fmt.Sprintf("[%s] %s%s\n", l.now().Format(RunLogTimeLayout), severity.prefix(), message)

	if err := lockFile(l.file); err != nil {
		l.mirror.Warn().Err(err).Msg("Failed to lock run log, writing unlocked")
	} else {
		defer unlockFile(l.file) //nolint:errcheck // Lock is released on close regardless
	}

	if _, err := l.file.WriteString(line); err != nil {
		l.mirror.Error().Err(err).Str("path", l.path).Msg("Failed to append to run log")
	}
}

func (l *RunLog) mirrorEvent(severity Severity) *zerolog.Event {
	switch severity {
	case SeverityWarning:
		return l.mirror.Warn()
	case SeverityError:
		return l.mirror.Error()
	case SeverityDetail:
		return l.mirror.Debug()
	default:
		return l.mirror.Info()
	}
}

// Close closes the underlying file. Further writes are only mirrored.
func (l *RunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
