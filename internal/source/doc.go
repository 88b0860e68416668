// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

/*
Package source provides backup candidate sources.

A source enumerates the courses of the platform with their active flag and
resolves a course code into the scope the exporter runs against. Two kinds are
available:

	file    YAML or JSON manifest (FileSource)
	duckdb  DuckDB database with a course table (DuckDBSource)

# Manifest Format

	courses:
	  - code: MATH101
	    id: 12
	    title: Calculus I
	    directory: MATH101
	  - code: HIST200
	    active: false

Entries without an active field are active. The manifest is read again on
every call, so edits take effect at the next run.

# DuckDB Queries

The list query must return (code, active) rows in enumeration order. The
resolve query takes the course code as its single parameter and returns
(id, code, title, directory). Defaults target a course table with a
visibility column:

	SELECT code, visibility <> 0 AS active FROM course ORDER BY id
	SELECT id, code, title, directory FROM course WHERE code = ?

The database is opened read-only.
*/
package source
