// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/tomtom215/coursevault/internal/backup"
)

// Manifest is the on-disk course list of a FileSource.
type Manifest struct {
	Courses []ManifestCourse `yaml:"courses" json:"courses"`
}

// ManifestCourse is one course entry of a manifest.
type ManifestCourse struct {
	Code      string `yaml:"code" json:"code"`
	Active    *bool  `yaml:"active,omitempty" json:"active,omitempty"`
	ID        int64  `yaml:"id,omitempty" json:"id,omitempty"`
	Title     string `yaml:"title,omitempty" json:"title,omitempty"`
	Directory string `yaml:"directory,omitempty" json:"directory,omitempty"`
}

// IsActive reports whether the course is eligible for backup.
func (c ManifestCourse) IsActive() bool {
	return c.Active == nil || *c.Active
}

// FileSource reads candidates from a YAML or JSON manifest file.
type FileSource struct {
	path string
}

// NewFileSource creates a source for the manifest at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// ListCandidates returns the manifest courses in file order.
func (s *FileSource) ListCandidates(_ context.Context) ([]backup.Candidate, error) {
	m, err := LoadManifest(s.path)
	if err != nil {
		return nil, err
	}

	candidates := make([]backup.Candidate, 0, len(m.Courses))
	for _, c := range m.Courses {
		candidates = append(candidates, backup.Candidate{Code: c.Code, Active: c.IsActive()})
	}
	return candidates, nil
}

// Resolve returns the scope of the manifest course with the given code.
func (s *FileSource) Resolve(_ context.Context, code string) (*backup.Scope, error) {
	m, err := LoadManifest(s.path)
	if err != nil {
		return nil, err
	}

	for _, c := range m.Courses {
		if c.Code == code {
			return &backup.Scope{ID: c.ID, Code: c.Code, Title: c.Title, Directory: c.Directory}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, code)
}

// Close is a no-op.
func (s *FileSource) Close() error {
	return nil
}

// LoadManifest reads and checks a manifest. Files ending in .json are parsed
// as JSON, everything else as YAML.
//
//nolint:gosec // G304: path is the configured manifest location
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read course manifest %q: %w", path, err)
	}

	var m Manifest
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &m)
	} else {
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse course manifest %q: %w", path, err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid course manifest %q: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	seen := make(map[string]int, len(m.Courses))
	for i, c := range m.Courses {
		if strings.TrimSpace(c.Code) == "" {
			return fmt.Errorf("course %d has no code", i+1)
		}
		if prev, ok := seen[c.Code]; ok {
			return fmt.Errorf("duplicate course code %q (entries %d and %d)", c.Code, prev+1, i+1)
		}
		seen[c.Code] = i
	}
	return nil
}
