// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

/*
archive.go - Export Consolidation

Every per-course export file present in the backup directory is swept into one
flat zip bundle, whatever run produced it:

	backup_{YYYY-MM-DD_HH-MM-SS}.zip
	├── MATH101_backup_2026-10-17_02-00-00.mbz
	├── HIST200_backup_2026-10-17_02-00-00.mbz
	└── ...

Bundle Creation Process:
 1. Write the zip to a hidden temp file in the backup directory
 2. Close writers in reverse order and re-open the zip to verify its entry list
 3. Link the temp file to the first free bundle name (_N suffix on collision)
 4. Delete the swept export files

If any step before 4 fails, the temp file is removed and every export file is
left in place for the next run.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// maxBundleSeq bounds the _N suffix search for same-second bundles.
const maxBundleSeq = 1000

// ConsolidationResult reports what a consolidation pass did.
type ConsolidationResult struct {
	// Bundle is the path of the created bundle, empty when nothing was swept.
	Bundle string

	// Files are the base names of the export files placed in the bundle.
	Files []string

	// Unremoved are export files that were bundled but could not be deleted.
	Unremoved []string
}

// Archiver consolidates per-course export files into bundles.
type Archiver struct {
	dir   string
	ext   string
	level int
	now   func() time.Time
}

// NewArchiver creates an archiver for export files with extension ext in dir.
func NewArchiver(dir, ext string, level int) *Archiver {
	return &Archiver{dir: dir, ext: ext, level: level, now: time.Now}
}

// archiveWriters holds the writers needed for creating a bundle
type archiveWriters struct {
	zipWriter *zip.Writer
	file      *os.File
	closers   []io.Closer
}

// Close closes all writers in reverse order, returning the first error encountered
func (aw *archiveWriters) Close() error {
	var firstErr error
	for i := len(aw.closers) - 1; i >= 0; i-- {
		if err := aw.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// syncCloser flushes the bundle file to disk before it is closed.
type syncCloser struct{ f *os.File }

func (s syncCloser) Close() error { return s.f.Sync() }

// setupArchiveWriters creates the temp file and zip writer for a bundle.
func (a *Archiver) setupArchiveWriters() (*archiveWriters, error) {
	outFile, err := os.CreateTemp(a.dir, bundleTempPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create bundle temp file: %w", err)
	}

	zw := zip.NewWriter(outFile)
	level := a.level
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	return &archiveWriters{
		zipWriter: zw,
		file:      outFile,
		closers:   []io.Closer{outFile, syncCloser{outFile}, zw},
	}, nil
}

// scanExportFiles returns export files in the backup directory sorted by name.
func (a *Archiver) scanExportFiles() ([]artifact, error) {
	files, err := listArtifacts(a.dir, func(name string) bool {
		return IsExportFile(name, a.ext)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}

// Consolidate sweeps every export file in the backup directory into a new
// bundle and deletes the originals. With no export files it does nothing.
// A bundle that cannot be written leaves all export files untouched and is
// reported as *ArchiveError after being logged as a warning.
func (a *Archiver) Consolidate(ctx context.Context, log RunLogger) (*ConsolidationResult, error) {
	result := &ConsolidationResult{}

	files, err := a.scanExportFiles()
	if err != nil {
		archErr := &ArchiveError{Path: a.dir, Op: "scan", Err: err}
		log.Warnf("Consolidation skipped: %v", archErr)
		return result, archErr
	}
	if len(files) == 0 {
		return result, nil
	}

	tmpPath, err := a.writeBundle(ctx, files)
	if err != nil {
		archErr := &ArchiveError{Path: a.dir, Op: "create bundle", Err: err}
		log.Warnf("Failed to create backup bundle, %d export file(s) kept for the next run: %v", len(files), err)
		return result, archErr
	}

	bundlePath, err := a.claimBundleName(tmpPath, FormatTimestamp(a.now()))
	os.Remove(tmpPath) //nolint:errcheck // Hard link or rename already placed the bundle
	if err != nil {
		archErr := &ArchiveError{Path: a.dir, Op: "name bundle", Err: err}
		log.Warnf("Failed to create backup bundle, %d export file(s) kept for the next run: %v", len(files), err)
		return result, archErr
	}
	result.Bundle = bundlePath

	for _, f := range files {
		result.Files = append(result.Files, f.name)
		if err := removeIfExists(f.path); err != nil {
			result.Unremoved = append(result.Unremoved, f.name)
			log.Warnf("Bundled export file could not be deleted: %v", err)
		}
	}

	log.Logf("Consolidated %d export file(s) into %s", len(result.Files), filepath.Base(bundlePath))
	return result, nil
}

// writeBundle writes files into a hidden temp zip and verifies it. The temp
// file is removed on failure.
func (a *Archiver) writeBundle(ctx context.Context, files []artifact) (tmpPath string, err error) {
	aw, err := a.setupArchiveWriters()
	if err != nil {
		return "", err
	}
	tmpPath = aw.file.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpPath) //nolint:errcheck // Best effort cleanup on error
		}
	}()

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			aw.Close() //nolint:errcheck // Abandoning the bundle
			return tmpPath, err
		}
		if err := addFileToBundle(aw.zipWriter, f); err != nil {
			aw.Close() //nolint:errcheck // Abandoning the bundle
			return tmpPath, err
		}
	}

	if err := aw.Close(); err != nil {
		return tmpPath, fmt.Errorf("failed to finalize bundle: %w", err)
	}

	if err := verifyBundle(tmpPath, files); err != nil {
		return tmpPath, err
	}
	return tmpPath, nil
}

// addFileToBundle adds a file to the zip under its base name.
//
//nolint:gosec // G304: path comes from a scan of the backup directory
func addFileToBundle(zw *zip.Writer, f artifact) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	defer file.Close() //nolint:errcheck // Read-only

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", f.path, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to create zip header for %s: %w", f.path, err)
	}
	header.Name = f.name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to write zip header for %s: %w", f.path, err)
	}

	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("failed to copy %s to bundle: %w", f.path, err)
	}
	return nil
}

// verifyBundle re-opens the written zip and checks it lists exactly the swept files.
func verifyBundle(path string, files []artifact) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("bundle is not readable: %w", err)
	}
	defer r.Close() //nolint:errcheck // Read-only

	if len(r.File) != len(files) {
		return fmt.Errorf("bundle has %d entries, expected %d", len(r.File), len(files))
	}
	for i, zf := range r.File {
		if zf.Name != files[i].name {
			return fmt.Errorf("bundle entry %d is %q, expected %q", i, zf.Name, files[i].name)
		}
	}
	return nil
}

// claimBundleName places the finished temp bundle under the first free bundle
// name for timestamp, never replacing an existing bundle.
func (a *Archiver) claimBundleName(tmpPath, timestamp string) (string, error) {
	for seq := 0; seq < maxBundleSeq; seq++ {
		candidate := filepath.Join(a.dir, BundleName(timestamp, seq))

		err := os.Link(tmpPath, candidate)
		if err == nil {
			return candidate, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}

		// Filesystems without hard links: check then rename.
		if _, statErr := os.Lstat(candidate); statErr == nil {
			continue
		}
		if err := os.Rename(tmpPath, candidate); err != nil {
			return "", err
		}
		return candidate, nil
	}
	return "", fmt.Errorf("no free bundle name for %s after %d attempts", timestamp, maxBundleSeq)
}
