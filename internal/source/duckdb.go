// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// DuckDB driver
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/coursevault/internal/backup"
)

// pingTimeout bounds the connectivity check in OpenDuckDB.
const pingTimeout = 10 * time.Second

// DuckDBSource reads candidates from a DuckDB database.
type DuckDBSource struct {
	db           *sql.DB
	path         string
	listQuery    string
	resolveQuery string
}

// OpenDuckDB opens the database at path read-only.
func OpenDuckDB(ctx context.Context, path, listQuery, resolveQuery string) (*DuckDBSource, error) {
	if path == "" {
		return nil, fmt.Errorf("duckdb source requires a database path")
	}
	if listQuery == "" || resolveQuery == "" {
		return nil, fmt.Errorf("duckdb source requires list and resolve queries")
	}

	// Disable auto-install/auto-load so a restricted host never blocks on downloads
	connStr := fmt.Sprintf("%s?access_mode=read_only&autoinstall_known_extensions=false&autoload_known_extensions=false", path)
	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %s: %w", path, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on error path
		return nil, fmt.Errorf("connect duckdb %s: %w", path, err)
	}

	return &DuckDBSource{
		db:           db,
		path:         path,
		listQuery:    listQuery,
		resolveQuery: resolveQuery,
	}, nil
}

// ListCandidates runs the list query.
func (s *DuckDBSource) ListCandidates(ctx context.Context) ([]backup.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, s.listQuery)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close() //nolint:errcheck // rows.Err checked below

	var candidates []backup.Candidate
	for rows.Next() {
		var c backup.Candidate
		if err := rows.Scan(&c.Code, &c.Active); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return candidates, nil
}

// Resolve runs the resolve query for code.
func (s *DuckDBSource) Resolve(ctx context.Context, code string) (*backup.Scope, error) {
	var (
		scope     backup.Scope
		title     sql.NullString
		directory sql.NullString
	)

	err := s.db.QueryRowContext(ctx, s.resolveQuery, code).Scan(&scope.ID, &scope.Code, &title, &directory)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve course %s: %w", code, err)
	}

	scope.Title = title.String
	scope.Directory = directory.String
	return &scope, nil
}

// Close closes the database.
func (s *DuckDBSource) Close() error {
	return s.db.Close()
}
