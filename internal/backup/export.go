// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

/*
export.go - Per-Course Export Driver

ExportOne drives a single candidate through the exporter:
 1. Bootstrap the exporter environment once per Driver (retried until it succeeds)
 2. Resolve the candidate's Scope from the Source
 3. Hold the Scope as the active scope only while the exporter runs
 4. Route exporter diagnostics: fatal escalates, warning and notice go to the run log
 5. Classify failures as missing data or export failure
 6. Copy the exporter's output into the backup directory and delete the original

Every exit path, including an exporter panic, releases the active scope and
closes the diagnostic sink.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/coursevault/internal/logging"
	"github.com/tomtom215/coursevault/internal/metrics"
)

// maxWarningReasonLen bounds the reason shown on a missing-data WARNING line.
// The full reason follows on a DETAIL line.
const maxWarningReasonLen = 200

// Driver exports single candidates. A Driver keeps the bootstrap state for
// its lifetime and is not safe for concurrent ExportOne calls.
type Driver struct {
	source    Source
	exporter  Exporter
	bootstrap Bootstrapper
	exportExt string
	patterns  []string

	// ready is set once the bootstrap has succeeded.
	ready bool

	scopeMu sync.Mutex
	active  *Scope
}

// NewDriver creates an export driver. bootstrap may be nil.
func NewDriver(source Source, exporter Exporter, bootstrap Bootstrapper, exportExt string, missingDataPatterns []string) *Driver {
	patterns := make([]string, 0, len(missingDataPatterns))
	for _, p := range missingDataPatterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			patterns = append(patterns, p)
		}
	}

	return &Driver{
		source:    source,
		exporter:  exporter,
		bootstrap: bootstrap,
		exportExt: exportExt,
		patterns:  patterns,
	}
}

// ActiveScope returns the scope of the export in progress, or nil.
func (d *Driver) ActiveScope() *Scope {
	d.scopeMu.Lock()
	defer d.scopeMu.Unlock()
	return d.active
}

// acquireScope installs s as the active scope and returns its release func.
func (d *Driver) acquireScope(s *Scope) func() {
	d.scopeMu.Lock()
	d.active = s
	d.scopeMu.Unlock()

	return func() {
		d.scopeMu.Lock()
		d.active = nil
		d.scopeMu.Unlock()
	}
}

// ExportOne exports candidate c into rc.BackupDir and reports the outcome to
// the run log. It never returns an error: every failure is an outcome.
func (d *Driver) ExportOne(ctx context.Context, rc *RunContext, c Candidate) ExportOutcome {
	start := time.Now()

	outcome := d.exportOne(ctx, rc, c)

	elapsed := time.Since(start)
	outcome.DurationSeconds = elapsed.Seconds()
	metrics.RecordCourseExport(string(outcome.Kind), elapsed)
	d.report(rc, outcome)

	return outcome
}

func (d *Driver) exportOne(ctx context.Context, rc *RunContext, c Candidate) ExportOutcome {
	if err := d.ensureBootstrapped(ctx); err != nil {
		return failedOutcome(c.Code, &ExportFailure{Code: c.Code, Stage: StageBootstrap, Err: err})
	}

	scope, err := d.resolve(ctx, c.Code)
	if err != nil {
		return failedOutcome(c.Code, &CandidateLookupError{Code: c.Code, Err: err})
	}

	dest := filepath.Join(rc.BackupDir, ExportFileName(c.Code, rc.Timestamp, d.exportExt))

	produced, err := d.runExporter(ctx, rc, scope)
	if err != nil {
		d.discardOutput(rc, c.Code, produced, dest)
		return d.classify(c.Code, err)
	}

	if err := d.relocate(rc, c.Code, produced, dest); err != nil {
		return failedOutcome(c.Code, &ExportFailure{Code: c.Code, Stage: StageRelocate, Err: err})
	}

	return ExportOutcome{Code: c.Code, Kind: OutcomeSuccess, ArchivePath: dest}
}

// ensureBootstrapped runs the bootstrap until it has succeeded once. The
// process working directory is restored afterward whatever the result.
func (d *Driver) ensureBootstrapped(ctx context.Context) (err error) {
	if d.ready || d.bootstrap == nil {
		return nil
	}

	if wd, wdErr := os.Getwd(); wdErr == nil {
		defer func() {
			if chErr := os.Chdir(wd); chErr != nil {
				logging.Warn().Err(chErr).Str("dir", wd).Msg("Failed to restore working directory after bootstrap")
			}
		}()
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("bootstrap panic: %v", rec)
		}
	}()

	if err := d.bootstrap.Bootstrap(ctx); err != nil {
		return err
	}
	d.ready = true
	return nil
}

// resolve looks up the candidate scope and rejects an empty result.
func (d *Driver) resolve(ctx context.Context, code string) (*Scope, error) {
	scope, err := d.source.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	if scope == nil {
		return nil, fmt.Errorf("no course with code %q", code)
	}
	return scope, nil
}

// diagnosticSink collects exporter diagnostics for one export call.
type diagnosticSink struct {
	mu     sync.Mutex
	code   string
	log    RunLogger
	fatal  []string
	closed bool
}

func (s *diagnosticSink) handle(level DiagnosticLevel, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		logging.Debug().Str("course", s.code).Str("level", level.String()).Msg("Diagnostic after export returned: " + message)
		return
	}

	switch level {
	case DiagnosticFatal:
		s.fatal = append(s.fatal, message)
	case DiagnosticWarning:
		s.log.Warnf("[%s] %s", s.code, message)
	default:
		s.log.Logf("[%s] NOTICE: %s", s.code, message)
	}
}

// close detaches the sink and returns the fatal diagnostics as an error.
func (s *diagnosticSink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if len(s.fatal) == 0 {
		return nil
	}
	return errors.New(strings.Join(s.fatal, "; "))
}

// runExporter calls the exporter with the scope held active and diagnostics routed.
func (d *Driver) runExporter(ctx context.Context, rc *RunContext, scope *Scope) (path string, err error) {
	release := d.acquireScope(scope)
	defer release()

	sink := &diagnosticSink{code: scope.Code, log: rc.Log}
	defer func() {
		if fatalErr := sink.close(); fatalErr != nil {
			if err == nil {
				err = fatalErr
			} else {
				err = fmt.Errorf("%w; %v", err, fatalErr)
			}
		}
	}()

	defer func() {
		if rec := recover(); rec != nil {
			path = ""
			err = &ExportFailure{Code: scope.Code, Stage: StageExport, Err: fmt.Errorf("exporter panic: %v", rec)}
		}
	}()

	path, err = d.exporter.Export(ctx, ExportRequest{Scope: scope, Diagnostics: sink.handle})
	if err == nil && path == "" {
		err = errors.New("exporter returned no archive path")
	}
	return path, err
}

// classify maps an exporter error to a missing-data skip or a failure.
func (d *Driver) classify(code string, err error) ExportOutcome {
	var failure *ExportFailure
	if errors.As(err, &failure) {
		return failedOutcome(code, failure)
	}

	if d.isMissingData(err) {
		reason := err.Error()
		return ExportOutcome{
			Code:   code,
			Kind:   OutcomeSkippedMissingData,
			Reason: reason,
			Err:    &MissingDataError{Code: code, Reason: reason, Err: err},
		}
	}

	return failedOutcome(code, &ExportFailure{Code: code, Stage: StageExport, Err: err})
}

// isMissingData reports whether err wraps ErrMissingData or its message
// contains one of the configured patterns.
func (d *Driver) isMissingData(err error) bool {
	if errors.Is(err, ErrMissingData) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range d.patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// relocate copies the exporter output to dest and deletes the original. The
// original is removed on copy failure too, so no export file outlives the run;
// a failed delete after a good copy is only a warning.
func (d *Driver) relocate(rc *RunContext, code, produced, dest string) error {
	if samePath(produced, dest) {
		return nil
	}

	if err := copyIntoPlace(produced, dest); err != nil {
		if rmErr := removeIfExists(produced); rmErr != nil {
			rc.Log.Warnf("[%s] %v", code, rmErr)
		}
		return fmt.Errorf("failed to copy %s to %s: %w", produced, dest, err)
	}

	if err := removeIfExists(produced); err != nil {
		rc.Log.Warnf("[%s] Exporter output left behind: %v", code, err)
	}
	return nil
}

// discardOutput removes a file the exporter produced before its export was
// classified as failed.
func (d *Driver) discardOutput(rc *RunContext, code, produced, dest string) {
	if produced == "" || samePath(produced, dest) {
		return
	}
	if err := removeIfExists(produced); err != nil {
		rc.Log.Warnf("[%s] Output of failed export left behind: %v", code, err)
	}
}

// report writes the outcome to the run log.
func (d *Driver) report(rc *RunContext, o ExportOutcome) {
	switch o.Kind {
	case OutcomeSuccess:
		rc.Log.Logf("[%s] Backup created: %s", o.Code, filepath.Base(o.ArchivePath))
	case OutcomeSkippedMissingData:
		rc.Log.Warnf("[%s] Skipped, course source data missing: %s", o.Code, truncate(o.Reason, maxWarningReasonLen))
		rc.Log.Detailf("[%s] %s", o.Code, o.Reason)
	default:
		rc.Log.Errorf("[%s] Backup failed: %s", o.Code, o.Reason)
	}
}

func failedOutcome(code string, err error) ExportOutcome {
	return ExportOutcome{Code: code, Kind: OutcomeFailed, Reason: err.Error(), Err: err}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
