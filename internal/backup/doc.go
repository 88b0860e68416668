// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

// Package backup runs scheduled course backups: one export archive per active
// course, consolidation of loose exports into zip bundles, and count-based
// retention of bundles and run logs.
//
// # Architecture
//
//	Runner   - Orchestrates one run (housekeeping, candidate loop, summary)
//	Driver   - Exports one candidate (bootstrap, scope, diagnostics, relocation)
//	Archiver - Sweeps export files into backup_{ts}.zip bundles
//	Prune    - Keeps the N most recently modified artifacts matching a pattern
//	Scheduler - Fires runs on a cron expression
//
// The filesystem is the only state. Every retention and consolidation decision
// is re-derived by scanning the backup and log directories, so a run that was
// killed halfway is cleaned up by the next one.
//
// # Artifacts
//
//	{backup_dir}/{code}_backup_{ts}.{ext}   per-course export (loose until the next run)
//	{backup_dir}/backup_{ts}.zip            consolidated bundle (ArchiveKeep newest kept)
//	{log_dir}/backup_{ts}.log               run log (LogKeep newest kept, current included)
//	{log_dir}/last_run.json                 summary of the last run
//
// Timestamps use the layout YYYY-MM-DD_HH-MM-SS.
//
// # Error Handling
//
// Only a *DirectoryError aborts a run. Per-course failures become outcomes:
//
//	*CandidateLookupError  Failed, the course scope could not be resolved
//	*MissingDataError      SkippedMissingData, logged as WARNING plus a DETAIL line
//	*ExportFailure         Failed, logged as ERROR
//
// Housekeeping failures are *ArchiveError values logged as warnings. Missing
// data skips are counted in Summary.Failed and reported again in
// Summary.SkippedMissingData.
//
// # Usage
//
//	runner, err := backup.NewRunner(cfg, source, exporter,
//		backup.WithBootstrapper(bootstrap))
//	if err != nil {
//		return err
//	}
//	summary, err := runner.Run(ctx, backup.RunOptions{CourseCode: code})
//	if err != nil {
//		// *DirectoryError: exit non-zero
//	}
//	fmt.Println(summary.Line())
package backup
