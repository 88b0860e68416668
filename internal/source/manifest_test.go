// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const yamlManifest = `courses:
  - code: MATH101
    id: 12
    title: Calculus I
    directory: MATH101
  - code: HIST200
    active: false
  - code: ART1
    active: true
`

const jsonManifest = `{"courses": [
  {"code": "MATH101", "id": 12, "title": "Calculus I", "directory": "MATH101"},
  {"code": "HIST200", "active": false},
  {"code": "ART1", "active": true}
]}`

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return path
}

func TestFileSource_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "courses.yaml", yamlManifest},
		{"yml", "courses.yml", yamlManifest},
		{"json", "courses.json", jsonManifest},
		{"json content without extension", "courses", jsonManifest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := NewFileSource(writeManifest(t, tt.file, tt.content))
			cands, err := src.ListCandidates(context.Background())
			if err != nil {
				t.Fatalf("ListCandidates() error = %v", err)
			}

			if len(cands) != 3 {
				t.Fatalf("expected 3 candidates, got %d", len(cands))
			}
			want := []struct {
				code   string
				active bool
			}{{"MATH101", true}, {"HIST200", false}, {"ART1", true}}
			for i, w := range want {
				if cands[i].Code != w.code || cands[i].Active != w.active {
					t.Errorf("candidate %d = %+v, want %s/%v", i, cands[i], w.code, w.active)
				}
			}

			scope, err := src.Resolve(context.Background(), "MATH101")
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if scope.ID != 12 || scope.Title != "Calculus I" || scope.Directory != "MATH101" {
				t.Errorf("unexpected scope: %+v", scope)
			}
		})
	}
}

func TestFileSource_ResolveUnknown(t *testing.T) {
	t.Parallel()

	src := NewFileSource(writeManifest(t, "courses.yaml", yamlManifest))
	if _, err := src.Resolve(context.Background(), "math101"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("expected ErrCourseNotFound for a case-mismatched code, got %v", err)
	}
}

func TestFileSource_ReadsChangesBetweenCalls(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "courses.yaml", "courses:\n  - code: A\n")
	src := NewFileSource(path)

	first, err := src.ListCandidates(context.Background())
	if err != nil || len(first) != 1 {
		t.Fatalf("first ListCandidates() = %v, %v", first, err)
	}

	if err := os.WriteFile(path, []byte("courses:\n  - code: A\n  - code: B\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	second, err := src.ListCandidates(context.Background())
	if err != nil || len(second) != 2 {
		t.Errorf("second ListCandidates() = %v, %v", second, err)
	}
}

func TestLoadManifest_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"duplicate code", "c.yaml", "courses:\n  - code: A\n  - code: A\n", "duplicate course code"},
		{"missing code", "c.yaml", "courses:\n  - title: nameless\n", "has no code"},
		{"bad yaml", "c.yaml", "courses: [unclosed", "failed to parse"},
		{"bad json", "c.json", "{", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadManifest(writeManifest(t, tt.file, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadManifest() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	if _, err := LoadManifest(filepath.Join(t.TempDir(), "absent.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	src, err := Open(context.Background(), Config{Kind: KindFile, Path: "/etc/coursevault/courses.yaml"})
	if err != nil {
		t.Fatalf("Open(file) error = %v", err)
	}
	if _, ok := src.(*FileSource); !ok {
		t.Errorf("expected *FileSource, got %T", src)
	}
	src.Close()

	if _, err := Open(context.Background(), Config{Kind: "ldap"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}
