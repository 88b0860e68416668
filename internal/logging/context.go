// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	// runIDKey is the context key for the backup run correlation id.
	runIDKey contextKey = "run_id"
)

// GenerateRunID creates a short correlation id for one backup run.
// Returns the first 8 characters of a UUID for readability in log lines.
func GenerateRunID() string {
	return uuid.New().String()[:8]
}

// ContextWithRunID returns a new context carrying the given run id.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext retrieves the run id from context.
// Returns empty string if not present.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns the global logger with the run id (if any) attached.
//
//	logging.Ctx(ctx).Info().Msg("Consolidation finished")
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := Logger()
	if id := RunIDFromContext(ctx); id != "" {
		logger = logger.With().Str("run_id", id).Logger()
	}
	return &logger
}
