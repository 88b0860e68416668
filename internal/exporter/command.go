// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package exporter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tomtom215/coursevault/internal/backup"
	"github.com/tomtom215/coursevault/internal/logging"
)

const (
	// stderrTailLines is the number of stderr lines kept for error messages.
	stderrTailLines = 5

	maxLineSize = 1024 * 1024
)

// Config describes the export command.
type Config struct {
	Command string
	Args    []string
	WorkDir string
}

// CommandExporter implements backup.Exporter by running an external command.
type CommandExporter struct {
	cfg Config
}

// NewCommandExporter creates an exporter for cfg.
func NewCommandExporter(cfg Config) (*CommandExporter, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, errors.New("exporter command is required")
	}
	return &CommandExporter{cfg: cfg}, nil
}

// Export runs the command for req.Scope and returns the archive path it printed.
func (e *CommandExporter) Export(ctx context.Context, req backup.ExportRequest) (string, error) {
	scope := req.Scope
	if scope == nil {
		return "", errors.New("export request has no course scope")
	}

	//nolint:gosec // G204: command and arguments come from operator configuration
	cmd := exec.CommandContext(ctx, e.cfg.Command, expandArgs(e.cfg.Args, scope)...)
	cmd.Dir = e.cfg.WorkDir
	cmd.Env = append(cmd.Environ(), scopeEnv(scope)...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("exporter stderr: %w", err)
	}

	logging.Debug().Str("course", scope.Code).Str("command", e.cfg.Command).Msg("Starting exporter")

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start exporter %s: %w", e.cfg.Command, err)
	}

	// Diagnostics are delivered from this goroutine only.
	tail := readDiagnostics(stderr, req.Diagnostics)

	if err := cmd.Wait(); err != nil {
		if len(tail) > 0 {
			return "", fmt.Errorf("exporter failed: %w: %s", err, strings.Join(tail, "; "))
		}
		return "", fmt.Errorf("exporter failed: %w", err)
	}

	path := lastLine(stdout.String())
	if path == "" {
		return "", errors.New("exporter printed no archive path")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.workDir(), path)
	}
	return path, nil
}

func (e *CommandExporter) workDir() string {
	if e.cfg.WorkDir != "" {
		return e.cfg.WorkDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// readDiagnostics forwards stderr lines to report until EOF and returns the
// last lines seen.
func readDiagnostics(r io.Reader, report backup.DiagnosticFunc) []string {
	var tail []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		level, message := classifyLine(line)
		if report != nil {
			report(level, message)
		}

		tail = append(tail, message)
		if len(tail) > stderrTailLines {
			tail = tail[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		logging.Warn().Err(err).Msg("Exporter stderr could not be read to the end")
		io.Copy(io.Discard, r) //nolint:errcheck // Drain so the exporter does not block
	}
	return tail
}

// classifyLine maps a stderr line prefix to a diagnostic level.
func classifyLine(line string) (backup.DiagnosticLevel, string) {
	prefixes := []struct {
		prefix string
		level  backup.DiagnosticLevel
	}{
		{"FATAL:", backup.DiagnosticFatal},
		{"ERROR:", backup.DiagnosticFatal},
		{"WARNING:", backup.DiagnosticWarning},
		{"NOTICE:", backup.DiagnosticNotice},
	}
	for _, p := range prefixes {
		if strings.HasPrefix(line, p.prefix) {
			return p.level, strings.TrimSpace(strings.TrimPrefix(line, p.prefix))
		}
	}
	return backup.DiagnosticNotice, line
}

// expandArgs substitutes scope placeholders in args.
func expandArgs(args []string, scope *backup.Scope) []string {
	r := strings.NewReplacer(
		"{code}", scope.Code,
		"{id}", strconv.FormatInt(scope.ID, 10),
		"{title}", scope.Title,
		"{directory}", scope.Directory,
	)
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

func scopeEnv(scope *backup.Scope) []string {
	return []string{
		"COURSE_CODE=" + scope.Code,
		"COURSE_ID=" + strconv.FormatInt(scope.ID, 10),
		"COURSE_TITLE=" + scope.Title,
		"COURSE_DIRECTORY=" + scope.Directory,
	}
}

// lastLine returns the last non-empty line of s.
func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
