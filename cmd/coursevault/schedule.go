// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/coursevault/internal/api"
	"github.com/tomtom215/coursevault/internal/backup"
	"github.com/tomtom215/coursevault/internal/logging"
	"github.com/tomtom215/coursevault/internal/supervisor"
	"github.com/tomtom215/coursevault/internal/supervisor/services"
)

// scheduleShutdownTimeout bounds how long shutdown waits for a run in progress
// to finish its current course.
const scheduleShutdownTimeout = 5 * time.Minute

func newScheduleCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run backups on a cron schedule",
		Long: `Run backups on the configured cron schedule (schedule.cron, default
"0 2 * * *"). A scheduled run is skipped while the previous one is still going.

When http.enabled is set, a read-only HTTP server exposes:
  GET /healthz         liveness
  GET /api/v1/status   last run summary
  GET /metrics         Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			scheduler, err := backup.NewScheduler(cfg.Schedule.Cron, backup.RunJob(a.runner), cfg.Schedule.RunOnStart)
			if err != nil {
				return &configError{err: err}
			}

			treeCfg := supervisor.DefaultTreeConfig()
			treeCfg.ShutdownTimeout = scheduleShutdownTimeout
			tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeCfg)
			if err != nil {
				return err
			}

			tree.AddSchedulingService(services.NewSchedulerService(scheduler))

			if cfg.HTTP.Enabled {
				status := lastRunStatus{runner: a.runner, path: statusPath(cfg)}
				router := api.NewRouter(status, scheduler, cfg.HTTP.RateLimit)
				server := &http.Server{
					Addr:              cfg.HTTP.Listen,
					Handler:           router.Handler(),
					ReadTimeout:       cfg.HTTP.ReadTimeout,
					ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
					WriteTimeout:      cfg.HTTP.WriteTimeout,
				}
				tree.AddAPIService(services.NewHTTPServerService(server, cfg.HTTP.ShutdownTimeout))
			}

			logging.Info().
				Str("schedule", cfg.Schedule.Cron).
				Bool("http", cfg.HTTP.Enabled).
				Str("backup_dir", cfg.Backup.Dir).
				Msg("Starting backup daemon")

			err = tree.Serve(cmd.Context())
			if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
				logging.Warn().Int("services", len(report)).Msg("Services did not stop within the shutdown timeout")
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logging.Info().Msg("Backup daemon stopped")
			return nil
		},
	}
}
