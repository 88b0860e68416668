// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

/*
Package supervisor runs the long-lived parts of coursevault schedule under a
suture v4 supervisor tree.

# Architecture

	coursevault (root)
	├── scheduling-layer
	│   └── backup-scheduler   cron-driven backup runs
	└── api-layer
	    └── http-server        /healthz, /api/v1/status, /metrics

The one-shot commands (run, prune, candidates, status) do not use the tree.

# Usage

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}

	tree.AddSchedulingService(services.NewSchedulerService(scheduler))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.HTTP.ShutdownTimeout))

	return tree.Serve(ctx)

Supervisor events (restarts, backoff, stop timeouts) are logged through
sutureslog into the zerolog pipeline.

# Failure Handling

Each layer has its own failure counter. A crashing HTTP server backs off and
restarts inside the api layer; the scheduler keeps its cron loop and any run
in progress. Counters decay over FailureDecay seconds; above
FailureThreshold the layer waits FailureBackoff before the next restart.

# Shutdown

Cancelling the context passed to Serve stops the scheduler, which waits for
the current run to return. A run checks for cancellation between courses, so
ShutdownTimeout should exceed the longest single course export.
UnstoppedServiceReport lists services that overran it.
*/
package supervisor
