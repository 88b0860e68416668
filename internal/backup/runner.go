// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

/*
runner.go - Backup Job Runner

A run executes these steps in order:
 1. Open the run log {log_dir}/backup_{ts}.log
 2. Prune run logs to LogKeep (the new log counts)
 3. Create the backup directory if needed, check it accepts writes and
    remove temporary files left by an interrupted run
 4. Consolidate leftover export files into a bundle, then prune bundles to ArchiveKeep
 5. List candidates, keep active ones matching the optional exact code filter
 6. Export each candidate in enumeration order
 7. Log a summary line with the counts and the log file path

Only step 3 (or a log directory that cannot be opened) aborts the run, with a
*DirectoryError. Everything else is logged and the run continues. Export
files produced in step 6 stay loose until the next run consolidates them.

Runs on the same Runner are serialized.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/tomtom215/coursevault/internal/logging"
	"github.com/tomtom215/coursevault/internal/metrics"
)

// StatusFileName is the last-run summary written to the log directory.
const StatusFileName = "last_run.json"

// staleTempAge is how old a hidden temporary file in the backup directory
// must be before housekeeping treats it as left by a killed run.
const staleTempAge = 6 * time.Hour

// RunOptions selects the candidates of a run.
type RunOptions struct {
	// CourseCode restricts the run to the candidate with exactly this code.
	CourseCode string
}

// Runner executes backup runs.
type Runner struct {
	cfg      Config
	source   Source
	exporter Exporter
	driver   *Driver
	now      func() time.Time

	// runMu serializes runs
	runMu sync.Mutex

	lastMu sync.RWMutex
	last   *Summary
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithBootstrapper sets the one-time environment bootstrap run before the first export.
func WithBootstrapper(b Bootstrapper) RunnerOption {
	return func(r *Runner) {
		r.driver.bootstrap = b
	}
}

// WithClock overrides the clock used for run timestamps.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// NewRunner creates a runner. source and exporter may be nil for a runner
// that only performs housekeeping.
func NewRunner(cfg Config, source Source, exporter Exporter, opts ...RunnerOption) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backup configuration: %w", err)
	}

	r := &Runner{
		cfg:      cfg,
		source:   source,
		exporter: exporter,
		driver:   NewDriver(source, exporter, nil, cfg.ExportExt, cfg.MissingDataPatterns),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Driver returns the runner's export driver.
func (r *Runner) Driver() *Driver {
	return r.driver
}

// LastSummary returns the summary of the most recent run of this Runner, or nil.
func (r *Runner) LastSummary() *Summary {
	r.lastMu.RLock()
	defer r.lastMu.RUnlock()
	return r.last
}

// Run performs a full backup run. The returned error is non-nil only when the
// run was aborted; the summary is returned whenever a run log was opened.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	if r.source == nil || r.exporter == nil {
		return nil, ErrRunnerIncomplete
	}
	return r.execute(ctx, func(ctx context.Context, rc *RunContext, s *Summary) {
		r.exportCandidates(ctx, rc, opts, s)
	})
}

// Housekeeping performs the log pruning, directory preparation, consolidation
// and bundle pruning steps of a run without exporting.
func (r *Runner) Housekeeping(ctx context.Context) (*Summary, error) {
	return r.execute(ctx, func(_ context.Context, rc *RunContext, s *Summary) {
		s.HousekeepingOnly = true
	})
}

// execute wraps body with the shared run lifecycle.
func (r *Runner) execute(ctx context.Context, body func(context.Context, *RunContext, *Summary)) (*Summary, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	rc, closeLog, err := r.openRun()
	if err != nil {
		r.recordAbort(err)
		return nil, err
	}
	defer closeLog()

	ctx = logging.ContextWithRunID(ctx, rc.RunID)
	summary := &Summary{
		RunID:        rc.RunID,
		RunTimestamp: rc.Timestamp,
		StartedAt:    rc.StartedAt,
		BackupDir:    rc.BackupDir,
		LogFile:      rc.LogFile,
	}

	if err := r.housekeeping(ctx, rc); err != nil {
		rc.Log.Errorf("%v", err)
		summary.Status = RunStatusDirectoryError
		summary.Error = err.Error()
		r.finish(ctx, summary)
		return summary, err
	}

	body(ctx, rc, summary)

	summary.Status = RunStatusCompleted
	r.finish(ctx, summary)
	if summary.HousekeepingOnly {
		rc.Log.Logf("Housekeeping finished. Log: %s", rc.LogFile)
	} else {
		rc.Log.Log(summary.Line())
	}

	return summary, nil
}

// openRun creates the run context and opens the run log.
func (r *Runner) openRun() (*RunContext, func(), error) {
	started := r.now()
	ts := FormatTimestamp(started)
	runID := logging.GenerateRunID()
	logPath := filepath.Join(r.cfg.LogDir, RunLogName(ts))

	runLog, err := logging.OpenRunLog(logPath, runID)
	if err != nil {
		return nil, nil, &DirectoryError{Kind: LogDirectory, Path: r.cfg.LogDir, Op: "open run log", Err: err}
	}

	rc := &RunContext{
		RunID:     runID,
		Timestamp: ts,
		StartedAt: started,
		BackupDir: r.cfg.BackupDir,
		LogFile:   logPath,
		Log:       runLog,
	}
	closeLog := func() {
		if err := runLog.Close(); err != nil {
			logging.Warn().Err(err).Str("path", logPath).Msg("Failed to close run log")
		}
	}
	return rc, closeLog, nil
}

// housekeeping runs steps 2 to 4. Only a *DirectoryError is returned.
func (r *Runner) housekeeping(ctx context.Context, rc *RunContext) error {
	r.prune(rc, r.cfg.LogDir, IsRunLog, r.cfg.LogKeep, metrics.ClassLog)

	if err := prepareDirectory(r.cfg.BackupDir); err != nil {
		return err
	}
	removeStaleTemps(r.cfg.BackupDir, r.now().Add(-staleTempAge), rc.Log)

	archiver := NewArchiver(r.cfg.BackupDir, r.cfg.ExportExt, r.cfg.CompressionLevel)
	archiver.now = r.now
	result, err := archiver.Consolidate(ctx, rc.Log)
	metrics.RecordConsolidation(len(result.Files), err)

	r.prune(rc, r.cfg.BackupDir, IsBundle, r.cfg.ArchiveKeep, metrics.ClassArchive)
	return nil
}

// prune runs one retention pass and records its metrics.
func (r *Runner) prune(rc *RunContext, dir string, match func(string) bool, keep int, class string) {
	result, err := Prune(dir, match, keep, rc.Log)
	if err != nil {
		rc.Log.Warnf("Retention pass skipped: %v", err)
		return
	}
	metrics.RecordPrune(class, len(result.Kept), len(result.Deleted), len(result.Failed))
}

// exportCandidates runs steps 5 and 6.
func (r *Runner) exportCandidates(ctx context.Context, rc *RunContext, opts RunOptions, summary *Summary) {
	rc.Log.Logf("Backup run %s started, backup directory %s", rc.RunID, rc.BackupDir)

	candidates, err := r.source.ListCandidates(ctx)
	if err != nil {
		rc.Log.Errorf("Failed to list backup candidates: %v", err)
		summary.Error = err.Error()
		return
	}

	selected := SelectCandidates(candidates, opts.CourseCode)
	if opts.CourseCode != "" && len(selected) == 0 {
		rc.Log.Warnf("No active course with code %q", opts.CourseCode)
	}

	for i, c := range selected {
		if err := ctx.Err(); err != nil {
			rc.Log.Warnf("Run interrupted, %d course(s) not attempted: %v", len(selected)-i, err)
			return
		}
		summary.record(r.driver.ExportOne(ctx, rc, c))
	}
}

// SelectCandidates returns the active candidates, restricted to an exact
// code match when code is non-empty. Enumeration order is preserved.
func SelectCandidates(candidates []Candidate, code string) []Candidate {
	var selected []Candidate
	for _, c := range candidates {
		if code != "" && c.Code != code {
			continue
		}
		if !c.Active {
			continue
		}
		selected = append(selected, c)
	}
	return selected
}

// finish stamps the summary, records metrics, persists the status file and
// stores the summary as the last run.
func (r *Runner) finish(ctx context.Context, summary *Summary) {
	summary.FinishedAt = r.now()
	duration := summary.FinishedAt.Sub(summary.StartedAt)
	summary.DurationSeconds = duration.Seconds()

	metrics.RecordRun(string(summary.Status), duration, summary.Succeeded, summary.Failed, summary.SkippedMissingData)

	if r.cfg.WriteStatusFile {
		path := filepath.Join(r.cfg.LogDir, StatusFileName)
		if err := WriteStatusFile(path, summary); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("Failed to write run status file")
		}
	}

	r.lastMu.Lock()
	r.last = summary
	r.lastMu.Unlock()

	logging.Ctx(ctx).Info().
		Str("status", string(summary.Status)).
		Int("considered", summary.Considered).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("skipped_missing_data", summary.SkippedMissingData).
		Dur("duration", duration).
		Msg("Backup run finished")
}

// recordAbort accounts for a run that could not open its log.
func (r *Runner) recordAbort(err error) {
	var dirErr *DirectoryError
	if errors.As(err, &dirErr) {
		metrics.RunsTotal.WithLabelValues(string(RunStatusDirectoryError)).Inc()
	}
	logging.Error().Err(err).Msg("Backup run aborted")
}
