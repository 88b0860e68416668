// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// testEnv holds the common test environment setup
type testEnv struct {
	root      string
	backupDir string
	logDir    string
	workDir   string
}

// newTestEnv creates backup, log and exporter work directories under t.TempDir
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	env := &testEnv{
		root:      root,
		backupDir: filepath.Join(root, "backups"),
		logDir:    filepath.Join(root, "logs"),
		workDir:   filepath.Join(root, "work"),
	}
	if err := os.MkdirAll(env.workDir, 0o750); err != nil {
		t.Fatalf("failed to create work dir: %v", err)
	}
	return env
}

// newTestConfig creates a runner configuration pointing at the env directories
func (e *testEnv) newTestConfig() Config {
	cfg := DefaultConfig()
	cfg.BackupDir = e.backupDir
	cfg.LogDir = e.logDir
	return cfg
}

// newTestRunner creates a runner with a stepping clock starting at 2026-10-18 02:00:00
func (e *testEnv) newTestRunner(t *testing.T, cfg Config, src Source, exp Exporter, opts ...RunnerOption) *Runner {
	t.Helper()

	opts = append([]RunnerOption{WithClock(steppingClock(testStart))}, opts...)
	r, err := NewRunner(cfg, src, exp, opts...)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return r
}

// writeFile creates a file with the given content and modification time
func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("failed to set mtime of %s: %v", path, err)
		}
	}
}

// listNames returns the sorted names of regular files in dir matching match
func listNames(t *testing.T, dir string, match func(string) bool) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && match(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names
}

// readLogLines returns the lines of a run log file
func readLogLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log %s: %v", path, err)
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func containsLine(lines []string, substr string) bool {
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

var testStart = time.Date(2026, 10, 18, 2, 0, 0, 0, time.UTC)

// steppingClock returns a clock that advances one second per call
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Second)
		return now
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// memLog is an in-memory RunLogger
type memLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *memLog) add(prefix, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, prefix+msg)
}

func (l *memLog) Log(message string) { l.add("", message) }
func (l *memLog) Logf(format string, args ...interface{}) { l.add("", fmt.Sprintf(format, args...)) }
func (l *memLog) Warnf(format string, args ...interface{}) { l.add("WARNING: ", fmt.Sprintf(format, args...)) }
func (l *memLog) Errorf(format string, args ...interface{}) { l.add("ERROR: ", fmt.Sprintf(format, args...)) }
func (l *memLog) Detailf(format string, args ...interface{}) { l.add("DETAIL: ", fmt.Sprintf(format, args...)) }

func (l *memLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// fakeSource serves candidates and scopes from memory
type fakeSource struct {
	candidates []Candidate
	listErr    error
	resolveErr map[string]error
	nilScope   map[string]bool

	mu        sync.Mutex
	listCalls int
}

func newFakeSource(candidates ...Candidate) *fakeSource {
	return &fakeSource{candidates: candidates}
}

func (s *fakeSource) ListCandidates(_ context.Context) ([]Candidate, error) {
	s.mu.Lock()
	s.listCalls++
	s.mu.Unlock()

	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]Candidate(nil), s.candidates...), nil
}

func (s *fakeSource) Resolve(_ context.Context, code string) (*Scope, error) {
	if err := s.resolveErr[code]; err != nil {
		return nil, err
	}
	if s.nilScope[code] {
		return nil, nil
	}
	for i, c := range s.candidates {
		if c.Code == code {
			return &Scope{ID: int64(i + 1), Code: code, Title: "Course " + code, Directory: code}, nil
		}
	}
	return nil, fmt.Errorf("unknown course %s", code)
}

func (s *fakeSource) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

// fakeExporter writes {code}.mbz into dir. behavior overrides the result per course code.
type fakeExporter struct {
	dir      string
	behavior map[string]func(ctx context.Context, req ExportRequest) (string, error)

	mu    sync.Mutex
	calls []string
}

func newFakeExporter(dir string) *fakeExporter {
	return &fakeExporter{
		dir:      dir,
		behavior: make(map[string]func(context.Context, ExportRequest) (string, error)),
	}
}

func (e *fakeExporter) Export(ctx context.Context, req ExportRequest) (string, error) {
	e.mu.Lock()
	e.calls = append(e.calls, req.Scope.Code)
	fn := e.behavior[req.Scope.Code]
	e.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return e.produce(req.Scope.Code)
}

// produce writes the exporter output file for code
func (e *fakeExporter) produce(code string) (string, error) {
	path := filepath.Join(e.dir, code+".mbz")
	if err := os.WriteFile(path, []byte("export of "+code), 0o640); err != nil {
		return "", err
	}
	return path, nil
}

func (e *fakeExporter) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// countingBootstrapper counts calls and fails while failures remain
type countingBootstrapper struct {
	mu       sync.Mutex
	calls    int
	failures int
	chdirTo  string
}

func (b *countingBootstrapper) Bootstrap(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls++
	if b.chdirTo != "" {
		if err := os.Chdir(b.chdirTo); err != nil {
			return err
		}
	}
	if b.failures > 0 {
		b.failures--
		return fmt.Errorf("exporter environment unavailable")
	}
	return nil
}

func (b *countingBootstrapper) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}
