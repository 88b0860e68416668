// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

/*
Package metrics provides Prometheus instrumentation for backup runs.

# Exposure

In daemon mode (coursevault schedule) metrics are served at /metrics:

	curl http://127.0.0.1:9464/metrics

One-shot runs (coursevault run) can write the registry to a file picked up by
the node_exporter textfile collector (metrics.textfile in config).

# Available Metrics

Run Metrics:
  - coursevault_runs_total: Finished runs (counter)
    Labels: status (completed, directory_error)
  - coursevault_run_duration_seconds: Run duration (histogram)
  - coursevault_last_run_timestamp_seconds: Unix time of the last run (gauge)
  - coursevault_last_run_courses: Courses per outcome in the last run (gauge)
    Labels: outcome

Export Metrics:
  - coursevault_course_exports_total: Export attempts (counter)
    Labels: outcome (success, skipped_missing_data, failed)
  - coursevault_course_export_duration_seconds: Single export duration (histogram)

Archive Metrics:
  - coursevault_bundles_created_total
  - coursevault_bundled_files_total
  - coursevault_consolidation_errors_total

Retention Metrics:
  - coursevault_pruned_files_total: Labels: class (archive, log)
  - coursevault_prune_errors_total: Labels: class
  - coursevault_retained_files: Labels: class

API Metrics (schedule only):
  - coursevault_api_requests_total: Labels: method, route, status
  - coursevault_api_request_duration_seconds: Labels: method, route
*/
package metrics
