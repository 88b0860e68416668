// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package backup

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Hidden temporary names left behind when a run is killed mid-write.
const (
	writeCheckPattern = ".coursevault-writecheck-*"
	bundleTempPattern = ".backup_*.zip.tmp"
)

// prepareDirectory creates dir when missing and proves it is writable by
// creating and removing an empty marker file.
func prepareDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &DirectoryError{Kind: BackupDirectory, Path: dir, Op: "create", Err: err}
	}

	marker, err := os.CreateTemp(dir, writeCheckPattern)
	if err != nil {
		return &DirectoryError{Kind: BackupDirectory, Path: dir, Op: "write", Err: err}
	}
	name := marker.Name()
	marker.Close()  //nolint:errcheck // Empty marker file
	os.Remove(name) //nolint:errcheck // Best effort cleanup

	return nil
}

// partialPath returns the hidden in-progress name used while dst is being written.
func partialPath(dst string) string {
	return filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".partial")
}

// copyIntoPlace copies src to dst through a hidden partial file, so dst only
// ever appears complete. The partial file is removed on failure.
//
//nolint:gosec // G304: src is the exporter's reported output path
func copyIntoPlace(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close() //nolint:errcheck // Read-only

	tmp := partialPath(dst)
	destFile, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}

	if err := copyAndCloseDestFile(destFile, sourceFile); err != nil {
		os.Remove(tmp) //nolint:errcheck // Best effort cleanup on error
		return err
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp) //nolint:errcheck // Best effort cleanup on error
		return err
	}
	return nil
}

// copyAndCloseDestFile copies data from source to destination file and ensures proper cleanup
func copyAndCloseDestFile(destFile *os.File, sourceFile *os.File) error {
	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close() //nolint:errcheck // Best effort cleanup on error
		return err
	}

	if err := destFile.Sync(); err != nil {
		destFile.Close() //nolint:errcheck // Best effort cleanup on error
		return err
	}

	return destFile.Close()
}

// samePath reports whether a and b name the same file.
func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// removeIfExists removes path, treating an already missing file as success.
func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// isStaleTemp reports whether name is one of the hidden temporary files
// written by prepareDirectory, copyIntoPlace or the archiver.
func isStaleTemp(name string) bool {
	if !strings.HasPrefix(name, ".") {
		return false
	}
	switch {
	case strings.HasPrefix(name, ".backup_") && strings.HasSuffix(name, ".zip.tmp"):
		return true
	case strings.HasSuffix(name, ".partial"):
		return true
	case strings.HasPrefix(name, ".coursevault-writecheck-"):
		return true
	}
	return false
}

// removeStaleTemps deletes hidden temporary files in dir last modified
// before cutoff. Files still being written by a concurrent process are
// newer than cutoff and survive. Failures are logged and skipped.
func removeStaleTemps(dir string, cutoff time.Time, log RunLogger) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warnf("Failed to scan %s for leftover temporary files: %v", dir, err)
		return nil
	}

	var removed []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !isStaleTemp(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := removeIfExists(filepath.Join(dir, e.Name())); err != nil {
			log.Warnf("Leftover temporary file not removed: %v", err)
			continue
		}
		log.Logf("Removed leftover temporary file: %s", e.Name())
		removed = append(removed, e.Name())
	}
	return removed
}
