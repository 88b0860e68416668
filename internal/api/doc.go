// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

/*
Package api provides the read-only HTTP surface of the backup daemon.

# Endpoints

	GET /healthz         200 "ok" while the process is up
	GET /api/v1/status   last run summary (404 before the first run)
	GET /metrics         Prometheus exposition

Status responses use the envelope:

	{
	  "status": "success",
	  "data": { ...run summary... },
	  "metadata": {"timestamp": "...", "next_run": "..."}
	}

# Middleware

Every route goes through request ID assignment, real IP extraction and panic
recovery. /api/v1 routes are rate limited per client IP with go-chi/httprate;
a limit of zero disables rate limiting.
*/
package api
