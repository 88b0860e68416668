// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

/*
Package exporter runs an external command to export one course.

# Command Protocol

The command runs once per course with these placeholders substituted in its
arguments:

	{code}       course code
	{id}         numeric course id
	{title}      course title
	{directory}  course directory name

The same values are passed as COURSE_CODE, COURSE_ID, COURSE_TITLE and
COURSE_DIRECTORY in the environment.

The last non-empty line on stdout is the path of the produced archive. A
relative path is taken relative to the command's working directory.

Lines on stderr become diagnostics:

	FATAL: ... / ERROR: ...  fatal, fails the export
	WARNING: ...             warning, written to the run log
	NOTICE: ... / other      notice, written to the run log

A non-zero exit status fails the export. The error message carries the tail of
stderr, so messages such as "No such file or directory" classify the course as
missing source data.

# Bootstrap

CommandBootstrapper runs a one-time environment preparation command (for
example a platform CLI warm-up) before the first export of a process.
*/
package exporter
