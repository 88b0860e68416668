// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/klauspost/compress/flate"

	"github.com/tomtom215/coursevault/internal/backup"
	"github.com/tomtom215/coursevault/internal/config"
	"github.com/tomtom215/coursevault/internal/exporter"
	"github.com/tomtom215/coursevault/internal/logging"
	"github.com/tomtom215/coursevault/internal/metrics"
	"github.com/tomtom215/coursevault/internal/source"
)

// dotenvFile is loaded from the working directory before configuration.
var dotenvFile = ".env"

// loadConfig resolves configuration for a command: .env, koanf layers, then
// flag overrides. It also configures the process logger.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &configError{err: fmt.Errorf("failed to load %s: %w", dotenvFile, err)}
	}

	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, &configError{err: err}
	}

	if applyOverrides(cfg, flags) {
		if err := cfg.Validate(); err != nil {
			return nil, &configError{err: fmt.Errorf("configuration validation failed: %w", err)}
		}
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	return cfg, nil
}

// applyOverrides copies non-empty flag values into cfg and reports whether
// anything changed.
func applyOverrides(cfg *config.Config, flags *globalFlags) bool {
	changed := false
	if flags.backupDir != "" {
		cfg.Backup.Dir = flags.backupDir
		changed = true
	}
	if flags.logDir != "" {
		cfg.Backup.LogDir = flags.logDir
		changed = true
	}
	return changed
}

// backupConfig converts the application config into the runner's config.
func backupConfig(cfg *config.Config) backup.Config {
	return backup.Config{
		BackupDir:           cfg.Backup.Dir,
		LogDir:              cfg.Backup.LogDir,
		ArchiveKeep:         cfg.Backup.ArchiveKeep,
		LogKeep:             cfg.Backup.LogKeep,
		ExportExt:           cfg.Backup.ExportExt,
		MissingDataPatterns: cfg.Exporter.MissingDataPatterns,
		CompressionLevel:    flate.DefaultCompression,
		WriteStatusFile:     true,
	}
}

// sourceConfig converts the application config into the source config.
func sourceConfig(cfg *config.Config) source.Config {
	return source.Config{
		Kind:         cfg.Source.Kind,
		Path:         cfg.Source.Path,
		ListQuery:    cfg.Source.ListQuery,
		ResolveQuery: cfg.Source.ResolveQuery,
	}
}

// app holds the components shared by the exporting commands.
type app struct {
	cfg    *config.Config
	runner *backup.Runner
	source source.Source
}

// newApp wires source, exporter and runner. With exporting false the runner
// only performs housekeeping.
func newApp(ctx context.Context, cfg *config.Config, exporting bool) (*app, error) {
	if !exporting {
		runner, err := backup.NewRunner(backupConfig(cfg), nil, nil)
		if err != nil {
			return nil, &configError{err: err}
		}
		return &app{cfg: cfg, runner: runner}, nil
	}

	if err := cfg.ValidateForExport(); err != nil {
		return nil, &configError{err: err}
	}

	exp, err := exporter.NewCommandExporter(exporter.Config{
		Command: cfg.Exporter.Command,
		Args:    cfg.Exporter.Args,
		WorkDir: cfg.Exporter.WorkDir,
	})
	if err != nil {
		return nil, &configError{err: err}
	}

	var opts []backup.RunnerOption
	if cfg.Exporter.BootstrapCommand != "" {
		boot, err := exporter.NewCommandBootstrapper(exporter.Config{
			Command: cfg.Exporter.BootstrapCommand,
			Args:    cfg.Exporter.BootstrapArgs,
			WorkDir: cfg.Exporter.WorkDir,
		})
		if err != nil {
			return nil, &configError{err: err}
		}
		opts = append(opts, backup.WithBootstrapper(boot))
	}

	src := openSource(ctx, cfg)

	runner, err := backup.NewRunner(backupConfig(cfg), src, exp, opts...)
	if err != nil {
		src.Close() //nolint:errcheck // Best effort cleanup on error
		return nil, &configError{err: err}
	}
	return &app{cfg: cfg, runner: runner, source: src}, nil
}

// openSource opens the configured source. A source that cannot be opened is
// replaced by one that fails every listing, so the run still performs
// housekeeping and records the failure in its run log.
func openSource(ctx context.Context, cfg *config.Config) source.Source {
	src, err := source.Open(ctx, sourceConfig(cfg))
	if err != nil {
		logging.Error().Err(err).Str("kind", cfg.Source.Kind).Str("path", cfg.Source.Path).
			Msg("Failed to open candidate source")
		return unavailableSource{err: err}
	}
	return src
}

// Close releases the source.
func (a *app) Close() {
	if a.source == nil {
		return
	}
	if err := a.source.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close candidate source")
	}
}

// writeTextfile exports the metrics registry when a textfile path is configured.
func (a *app) writeTextfile() {
	path := a.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		logging.Warn().Err(err).Msg("Failed to write metrics textfile")
	}
}

// statusPath is the last-run status file in the log directory.
func statusPath(cfg *config.Config) string {
	return filepath.Join(cfg.Backup.LogDir, backup.StatusFileName)
}

// unavailableSource fails every call with the error that prevented opening
// the real source.
type unavailableSource struct {
	err error
}

func (s unavailableSource) ListCandidates(context.Context) ([]backup.Candidate, error) {
	return nil, fmt.Errorf("candidate source unavailable: %w", s.err)
}

func (s unavailableSource) Resolve(context.Context, string) (*backup.Scope, error) {
	return nil, fmt.Errorf("candidate source unavailable: %w", s.err)
}

func (s unavailableSource) Close() error { return nil }
