// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/coursevault/internal/backup"
)

// Source kinds.
const (
	KindFile   = "file"
	KindDuckDB = "duckdb"
)

// ErrCourseNotFound is returned by Resolve for an unknown course code.
var ErrCourseNotFound = errors.New("course not found")

// Source is a candidate source that holds resources until closed.
type Source interface {
	backup.Source
	Close() error
}

// Config selects and configures a source.
type Config struct {
	Kind         string
	Path         string
	ListQuery    string
	ResolveQuery string
}

// Open creates the source described by cfg.
func Open(ctx context.Context, cfg Config) (Source, error) {
	switch cfg.Kind {
	case KindFile:
		return NewFileSource(cfg.Path), nil
	case KindDuckDB:
		return OpenDuckDB(ctx, cfg.Path, cfg.ListQuery, cfg.ResolveQuery)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
