// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package backup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// Line returns the one-line human summary of a run.
func (s *Summary) Line() string {
	if s.Status == RunStatusDirectoryError {
		return fmt.Sprintf("Backup aborted: %s. Log: %s", s.Error, s.LogFile)
	}
	return fmt.Sprintf("Backup finished: %d succeeded, %d failed (%d skipped for missing data) of %d course(s). Log: %s",
		s.Succeeded, s.Failed, s.SkippedMissingData, s.Considered, s.LogFile)
}

// WriteStatusFile writes summary as indented JSON to path, replacing any
// previous file atomically.
func WriteStatusFile(path string, summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".last_run-*.json")
	if err != nil {
		return fmt.Errorf("failed to create status temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()        //nolint:errcheck // Best effort cleanup on error
		os.Remove(tmpName) //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("failed to write status file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("failed to close status file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("failed to replace status file: %w", err)
	}
	return nil
}

// ReadStatusFile loads a summary written by WriteStatusFile.
//
//nolint:gosec // G304: path is the configured log directory status file
func ReadStatusFile(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse status file %s: %w", path, err)
	}
	return &summary, nil
}
