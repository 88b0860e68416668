// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

func isMBZ(name string) bool { return IsExportFile(name, "mbz") }

func TestRunner_ExportsActiveCandidatesInOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	src := newFakeSource(
		Candidate{Code: "C3", Active: true},
		Candidate{Code: "OLD", Active: false},
		Candidate{Code: "A1", Active: true},
		Candidate{Code: "B2", Active: true},
	)
	exp := newFakeExporter(env.workDir)
	r := env.newTestRunner(t, env.newTestConfig(), src, exp)

	summary, err := r.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := strings.Join(exp.Calls(), ","); got != "C3,A1,B2" {
		t.Errorf("export order = %s, want C3,A1,B2", got)
	}
	if summary.Status != RunStatusCompleted || summary.Considered != 3 || summary.Succeeded != 3 || summary.Failed != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	exports := listNames(t, env.backupDir, isMBZ)
	want := []string{
		"A1_backup_2026-10-18_02-00-00.mbz",
		"B2_backup_2026-10-18_02-00-00.mbz",
		"C3_backup_2026-10-18_02-00-00.mbz",
	}
	if strings.Join(exports, ",") != strings.Join(want, ",") {
		t.Errorf("export files = %v, want %v", exports, want)
	}
	if bundles := listNames(t, env.backupDir, IsBundle); len(bundles) != 0 {
		t.Errorf("exports of the current run must stay loose, found bundles %v", bundles)
	}

	lines := readLogLines(t, summary.LogFile)
	if !containsLine(lines, "Backup run "+summary.RunID+" started") {
		t.Errorf("expected start line, got %v", lines)
	}
	if last := lines[len(lines)-1]; !strings.Contains(last, "Backup finished: 3 succeeded, 0 failed (0 skipped for missing data) of 3 course(s). Log: "+summary.LogFile) {
		t.Errorf("expected summary as last line, got %q", last)
	}
}

func TestRunner_CourseFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		code      string
		wantCalls string
		wantWarn  bool
	}{
		{"exact match", "B2", "B2", false},
		{"inactive course", "OLD", "", true},
		{"unknown course", "NOPE", "", true},
		{"prefix does not match", "B", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			src := newFakeSource(
				Candidate{Code: "A1", Active: true},
				Candidate{Code: "OLD", Active: false},
				Candidate{Code: "B2", Active: true},
			)
			exp := newFakeExporter(env.workDir)
			r := env.newTestRunner(t, env.newTestConfig(), src, exp)

			summary, err := r.Run(context.Background(), RunOptions{CourseCode: tt.code})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got := strings.Join(exp.Calls(), ","); got != tt.wantCalls {
				t.Errorf("exported %q, want %q", got, tt.wantCalls)
			}
			gotWarn := containsLine(readLogLines(t, summary.LogFile), "WARNING: No active course with code")
			if gotWarn != tt.wantWarn {
				t.Errorf("warning logged = %v, want %v", gotWarn, tt.wantWarn)
			}
		})
	}
}

func TestSelectCandidates(t *testing.T) {
	cands := []Candidate{{"A", true}, {"B", false}, {"C", true}, {"A", false}}

	if got := SelectCandidates(cands, ""); len(got) != 2 || got[0].Code != "A" || got[1].Code != "C" {
		t.Errorf("SelectCandidates(all) = %v", got)
	}
	if got := SelectCandidates(cands, "A"); len(got) != 1 || !got[0].Active {
		t.Errorf("SelectCandidates(A) = %v", got)
	}
	if got := SelectCandidates(nil, ""); len(got) != 0 {
		t.Errorf("SelectCandidates(nil) = %v", got)
	}
}

func TestRunner_FailuresAreIsolated(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	src := newFakeSource(
		Candidate{Code: "PANIC", Active: true},
		Candidate{Code: "BROKEN", Active: true},
		Candidate{Code: "GONE", Active: true},
		Candidate{Code: "OK", Active: true},
	)
	src.resolveErr = map[string]error{"GONE": errors.New("no such row")}
	exp := newFakeExporter(env.workDir)
	exp.behavior["PANIC"] = func(context.Context, ExportRequest) (string, error) { panic("boom") }
	exp.behavior["BROKEN"] = func(context.Context, ExportRequest) (string, error) {
		return "", errors.New("exporter exited with status 3")
	}

	r := env.newTestRunner(t, env.newTestConfig(), src, exp)
	summary, err := r.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Considered != 4 || summary.Succeeded != 1 || summary.Failed != 3 {
		t.Errorf("unexpected tallies: %+v", summary)
	}
	if summary.Outcomes[3].Code != "OK" || summary.Outcomes[3].Kind != OutcomeSuccess {
		t.Errorf("last course should succeed, got %+v", summary.Outcomes[3])
	}
	if r.Driver().ActiveScope() != nil {
		t.Error("no scope may stay active after a run")
	}

	lines := readLogLines(t, summary.LogFile)
	for _, code := range []string{"PANIC", "BROKEN", "GONE"} {
		if !containsLine(lines, "ERROR: ["+code+"] Backup failed:") {
			t.Errorf("expected error line for %s, got %v", code, lines)
		}
	}
}

func TestRunner_MissingDataSkip(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	src := newFakeSource(
		Candidate{Code: "A", Active: true},
		Candidate{Code: "B", Active: true},
		Candidate{Code: "C", Active: true},
	)
	exp := newFakeExporter(env.workDir)
	exp.behavior["B"] = func(context.Context, ExportRequest) (string, error) {
		return "", errors.New("failed to open stream: /var/www/chamilo/courses/B/document/intro.html")
	}

	r := env.newTestRunner(t, env.newTestConfig(), src, exp)
	summary, err := r.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Succeeded != 2 || summary.Failed != 1 || summary.SkippedMissingData != 1 || summary.Considered != 3 {
		t.Errorf("unexpected tallies: %+v", summary)
	}

	var missing *MissingDataError
	if !errors.As(summary.Outcomes[1].Err, &missing) || missing.Code != "B" {
		t.Errorf("expected MissingDataError for B, got %v", summary.Outcomes[1].Err)
	}

	lines := readLogLines(t, summary.LogFile)
	if !containsLine(lines, "WARNING: [B] Skipped, course source data missing") {
		t.Errorf("expected skip warning, got %v", lines)
	}
	if !containsLine(lines, "DETAIL: [B] failed to open stream") {
		t.Errorf("expected detail line, got %v", lines)
	}
	if !containsLine(lines, "2 succeeded, 1 failed (1 skipped for missing data) of 3 course(s)") {
		t.Errorf("expected summary line, got %v", lines)
	}
	if exports := listNames(t, env.backupDir, isMBZ); len(exports) != 2 {
		t.Errorf("expected 2 export files, got %v", exports)
	}
}

func TestRunner_NextRunConsolidatesPreviousExports(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	src := newFakeSource(
		Candidate{Code: "A", Active: true},
		Candidate{Code: "B", Active: true},
		Candidate{Code: "C", Active: true},
	)
	exp := newFakeExporter(env.workDir)
	r := env.newTestRunner(t, env.newTestConfig(), src, exp)

	first, err := r.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	firstExports := listNames(t, env.backupDir, isMBZ)
	if len(firstExports) != 3 {
		t.Fatalf("expected 3 loose exports after first run, got %v", firstExports)
	}

	src.candidates = nil
	second, err := r.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second.RunTimestamp == first.RunTimestamp {
		t.Fatal("runs should have distinct timestamps")
	}

	bundles := listNames(t, env.backupDir, IsBundle)
	if len(bundles) != 1 {
		t.Fatalf("expected one bundle, got %v", bundles)
	}
	entries := readBundle(t, filepath.Join(env.backupDir, bundles[0]))
	var names []string
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	if strings.Join(names, ",") != strings.Join(firstExports, ",") {
		t.Errorf("bundle entries = %v, want %v", names, firstExports)
	}
	if loose := listNames(t, env.backupDir, isMBZ); len(loose) != 0 {
		t.Errorf("bundled exports must be removed, got %v", loose)
	}
}

func TestRunner_RetentionPasses(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	cfg := env.newTestConfig()
	cfg.ArchiveKeep = 30
	cfg.LogKeep = 3

	old := time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC)
	for i := 0; i < 35; i++ {
		day := old.AddDate(0, 0, i)
		writeFile(t, filepath.Join(env.backupDir, BundleName(FormatTimestamp(day), 0)), "zip", day)
	}
	for i := 0; i < 5; i++ {
		day := old.AddDate(0, 0, i)
		writeFile(t, filepath.Join(env.logDir, RunLogName(FormatTimestamp(day))), "log", day)
	}

	r := env.newTestRunner(t, cfg, nil, nil)
	summary, err := r.Housekeeping(context.Background())
	if err != nil {
		t.Fatalf("Housekeeping() error = %v", err)
	}
	if !summary.HousekeepingOnly {
		t.Error("expected housekeeping-only summary")
	}

	bundles := listNames(t, env.backupDir, IsBundle)
	if len(bundles) != 30 {
		t.Errorf("expected 30 bundles, got %d", len(bundles))
	}
	for i := 0; i < 5; i++ {
		name := BundleName(FormatTimestamp(old.AddDate(0, 0, i)), 0)
		if _, err := os.Stat(filepath.Join(env.backupDir, name)); !os.IsNotExist(err) {
			t.Errorf("expected oldest bundle %s to be pruned", name)
		}
	}

	logs := listNames(t, env.logDir, IsRunLog)
	if len(logs) != 3 {
		t.Errorf("expected 3 run logs, got %v", logs)
	}
	if _, err := os.Stat(summary.LogFile); err != nil {
		t.Errorf("current run log must be kept: %v", err)
	}
	if last := readLogLines(t, summary.LogFile); !containsLine(last, "Housekeeping finished. Log: "+summary.LogFile) {
		t.Errorf("expected housekeeping line, got %v", last)
	}
}

func TestRunner_HousekeepingRemovesStaleTemps(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	old := testStart.Add(-48 * time.Hour)
	fresh := testStart.Add(-10 * time.Minute)

	stale := []string{
		".backup_123.zip.tmp",
		".A_backup_2026-10-17_02-00-00.mbz.partial",
		".coursevault-writecheck-42",
	}
	for _, name := range stale {
		writeFile(t, filepath.Join(env.backupDir, name), "partial", old)
	}
	inFlight := ".B_backup_2026-10-18_01-50-00.mbz.partial"
	writeFile(t, filepath.Join(env.backupDir, inFlight), "partial", fresh)
	unrelated := ".keep.tmp"
	writeFile(t, filepath.Join(env.backupDir, unrelated), "other", old)

	r := env.newTestRunner(t, env.newTestConfig(), newFakeSource(), newFakeExporter(env.workDir))
	summary, err := r.Housekeeping(context.Background())
	if err != nil {
		t.Fatalf("Housekeeping() error = %v", err)
	}

	for _, name := range stale {
		if _, err := os.Stat(filepath.Join(env.backupDir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should have been removed", name)
		}
	}
	for _, name := range []string{inFlight, unrelated} {
		if _, err := os.Stat(filepath.Join(env.backupDir, name)); err != nil {
			t.Errorf("%s must survive: %v", name, err)
		}
	}
	if !containsLine(readLogLines(t, summary.LogFile), "Removed leftover temporary file: .backup_123.zip.tmp") {
		t.Error("expected removal to be logged")
	}
}

func TestIsStaleTemp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{".backup_2026-10-18_02-00-00.zip.tmp123", false},
		{".backup_123.zip.tmp", true},
		{".MATH101_backup_2026-10-18_02-00-00.mbz.partial", true},
		{".coursevault-writecheck-1", true},
		{"backup_123.zip.tmp", false},
		{"MATH101_backup_2026-10-18_02-00-00.mbz", false},
		{".other.tmp", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isStaleTemp(tt.name); got != tt.want {
				t.Errorf("isStaleTemp(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestRunner_BackupDirectoryNotWritable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	blocker := filepath.Join(env.root, "blocker")
	writeFile(t, blocker, "not a directory", time.Time{})

	cfg := env.newTestConfig()
	cfg.BackupDir = filepath.Join(blocker, "backups")
	src := newFakeSource(Candidate{Code: "A", Active: true})
	exp := newFakeExporter(env.workDir)
	r := env.newTestRunner(t, cfg, src, exp)

	summary, err := r.Run(context.Background(), RunOptions{})

	var dirErr *DirectoryError
	if !errors.As(err, &dirErr) {
		t.Fatalf("expected *DirectoryError, got %v", err)
	}
	if dirErr.Path != cfg.BackupDir {
		t.Errorf("DirectoryError.Path = %q, want %q", dirErr.Path, cfg.BackupDir)
	}
	if !strings.HasPrefix(err.Error(), "backup directory "+cfg.BackupDir+": ") {
		t.Errorf("unexpected error message %q", err.Error())
	}
	if summary == nil || summary.Status != RunStatusDirectoryError {
		t.Fatalf("expected directory_error summary, got %+v", summary)
	}
	if src.ListCalls() != 0 || len(exp.Calls()) != 0 {
		t.Error("no candidate may be attempted after a directory error")
	}

	lines := readLogLines(t, summary.LogFile)
	if len(lines) != 1 || !strings.Contains(lines[0], "ERROR: ") {
		t.Errorf("expected a single error line in the run log, got %v", lines)
	}
	if !strings.HasPrefix(summary.Line(), "Backup aborted: ") {
		t.Errorf("unexpected summary line %q", summary.Line())
	}
}

func TestRunner_LogDirectoryNotWritable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	blocker := filepath.Join(env.root, "blocker")
	writeFile(t, blocker, "not a directory", time.Time{})

	cfg := env.newTestConfig()
	cfg.LogDir = filepath.Join(blocker, "logs")
	r := env.newTestRunner(t, cfg, newFakeSource(), newFakeExporter(env.workDir))

	summary, err := r.Run(context.Background(), RunOptions{})
	var dirErr *DirectoryError
	if !errors.As(err, &dirErr) || dirErr.Path != cfg.LogDir {
		t.Fatalf("expected *DirectoryError for the log dir, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "log directory "+cfg.LogDir+": open run log: ") {
		t.Errorf("unexpected error message %q", err.Error())
	}
	if summary != nil {
		t.Errorf("expected no summary without a run log, got %+v", summary)
	}
}

func TestRunner_CandidateListingError(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	src := newFakeSource()
	src.listErr = errors.New("database is locked")
	r := env.newTestRunner(t, env.newTestConfig(), src, newFakeExporter(env.workDir))

	summary, err := r.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("a listing failure must not abort the run: %v", err)
	}
	if summary.Status != RunStatusCompleted || summary.Considered != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if !strings.Contains(summary.Error, "database is locked") {
		t.Errorf("expected listing error in summary, got %q", summary.Error)
	}
	if !containsLine(readLogLines(t, summary.LogFile), "ERROR: Failed to list backup candidates: database is locked") {
		t.Error("expected listing error in run log")
	}
}

func TestRunner_CancellationStopsBetweenCandidates(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	src := newFakeSource(Candidate{Code: "A", Active: true}, Candidate{Code: "B", Active: true})
	exp := newFakeExporter(env.workDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exp.behavior["A"] = func(context.Context, ExportRequest) (string, error) {
		cancel()
		return exp.produce("A")
	}

	r := env.newTestRunner(t, env.newTestConfig(), src, exp)
	summary, err := r.Run(ctx, RunOptions{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.Join(exp.Calls(), ","); got != "A" {
		t.Errorf("expected only A to be exported, got %s", got)
	}
	if summary.Considered != 1 {
		t.Errorf("expected 1 considered, got %d", summary.Considered)
	}
	if !containsLine(readLogLines(t, summary.LogFile), "Run interrupted, 1 course(s) not attempted") {
		t.Error("expected interruption warning")
	}
}

func TestRunner_StatusFileAndLastSummary(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	src := newFakeSource(Candidate{Code: "A", Active: true})
	r := env.newTestRunner(t, env.newTestConfig(), src, newFakeExporter(env.workDir))

	if r.LastSummary() != nil {
		t.Fatal("expected no summary before the first run")
	}

	summary, err := r.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if r.LastSummary() != summary {
		t.Error("LastSummary should return the latest run")
	}
	if summary.FinishedAt.Before(summary.StartedAt) {
		t.Error("FinishedAt must not precede StartedAt")
	}

	status, err := ReadStatusFile(filepath.Join(env.logDir, StatusFileName))
	if err != nil {
		t.Fatalf("ReadStatusFile() error = %v", err)
	}
	if status.RunID != summary.RunID || status.Succeeded != 1 {
		t.Errorf("status file does not match run: %+v", status)
	}
}

func TestRunner_Incomplete(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	r := env.newTestRunner(t, env.newTestConfig(), nil, nil)

	if _, err := r.Run(context.Background(), RunOptions{}); !errors.Is(err, ErrRunnerIncomplete) {
		t.Errorf("expected ErrRunnerIncomplete, got %v", err)
	}
}

func TestNewRunner_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ArchiveKeep = 0
	if _, err := NewRunner(cfg, nil, nil); err == nil {
		t.Error("expected configuration error")
	}
}

func TestRunner_BootstrapperOption(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	src := newFakeSource(Candidate{Code: "A", Active: true}, Candidate{Code: "B", Active: true})
	boot := &countingBootstrapper{}
	r := env.newTestRunner(t, env.newTestConfig(), src, newFakeExporter(env.workDir), WithBootstrapper(boot))

	for i := 0; i < 2; i++ {
		if _, err := r.Run(context.Background(), RunOptions{}); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	}
	if boot.Calls() != 1 {
		t.Errorf("expected one bootstrap for the runner lifetime, got %d", boot.Calls())
	}
}
