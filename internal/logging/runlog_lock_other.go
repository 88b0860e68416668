// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

//go:build !unix

package logging

import "os"

// Non-unix platforms rely on O_APPEND alone.
func lockFile(_ *os.File) error { return nil }

func unlockFile(_ *os.File) error { return nil }
