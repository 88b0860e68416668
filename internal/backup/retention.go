// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

/*
retention.go - Count-Based Artifact Retention

Retention is re-derived from the directory on every pass; nothing is cached
between runs. A pass:
 1. Lists regular files in the directory whose names match the predicate
 2. Sorts them newest first by modification time (name descending on ties)
 3. Keeps the first N and deletes the rest

Deletion is best-effort: a file that cannot be removed is logged and the pass
moves on. A file that is already gone counts as removed.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// artifact is a file considered by a retention pass.
type artifact struct {
	name    string
	path    string
	modTime time.Time
}

// PruneResult reports what a retention pass did.
type PruneResult struct {
	Kept    []string
	Deleted []string
	Failed  []string
}

// listArtifacts returns the regular files in dir whose names satisfy match.
// A missing directory yields no artifacts.
func listArtifacts(dir string, match func(name string) bool) ([]artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var artifacts []artifact
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}
		artifacts = append(artifacts, artifact{
			name:    entry.Name(),
			path:    filepath.Join(dir, entry.Name()),
			modTime: info.ModTime(),
		})
	}
	return artifacts, nil
}

// sortNewestFirst orders artifacts by modification time, most recent first.
func sortNewestFirst(artifacts []artifact) {
	sort.SliceStable(artifacts, func(i, j int) bool {
		if artifacts[i].modTime.Equal(artifacts[j].modTime) {
			return artifacts[i].name > artifacts[j].name
		}
		return artifacts[i].modTime.After(artifacts[j].modTime)
	})
}

// Prune keeps the keep most recently modified files in dir that satisfy match
// and deletes the rest. Deletion failures are written to log and reported in
// the result; only a directory that cannot be listed returns an error.
func Prune(dir string, match func(name string) bool, keep int, log RunLogger) (*PruneResult, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep count must not be negative, got %d", keep)
	}

	artifacts, err := listArtifacts(dir, match)
	if err != nil {
		return nil, &ArchiveError{Path: dir, Op: "list", Err: err}
	}

	sortNewestFirst(artifacts)

	result := &PruneResult{}
	for i, a := range artifacts {
		if i < keep {
			result.Kept = append(result.Kept, a.name)
			continue
		}

		if err := os.Remove(a.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			result.Failed = append(result.Failed, a.name)
			log.Warnf("Failed to delete old artifact %s: %v", a.path, err)
			continue
		}
		result.Deleted = append(result.Deleted, a.name)
	}

	if len(result.Deleted) > 0 {
		log.Logf("Pruned %d old file(s) from %s, kept %d", len(result.Deleted), dir, len(result.Kept))
	}

	return result, nil
}
