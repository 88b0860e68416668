// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for per-course export results.
const (
	OutcomeSuccess            = "success"
	OutcomeSkippedMissingData = "skipped_missing_data"
	OutcomeFailed             = "failed"
)

// Artifact class labels for retention passes.
const (
	ClassArchive = "archive"
	ClassLog     = "log"
)

var (
	// Run Metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursevault_runs_total",
			Help: "Total number of backup runs by final status",
		},
		[]string{"status"}, // "completed", "directory_error"
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coursevault_run_duration_seconds",
			Help:    "Duration of complete backup runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600, 7200},
		},
	)

	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coursevault_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last finished backup run",
		},
	)

	LastRunCourses = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coursevault_last_run_courses",
			Help: "Number of courses per outcome in the last finished backup run",
		},
		[]string{"outcome"},
	)

	// Export Metrics
	CourseExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursevault_course_exports_total",
			Help: "Total number of course export attempts by outcome",
		},
		[]string{"outcome"},
	)

	CourseExportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coursevault_course_export_duration_seconds",
			Help:    "Duration of a single course export including relocation",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)

	// Archive Metrics
	BundlesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coursevault_bundles_created_total",
			Help: "Total number of consolidated bundles written",
		},
	)

	BundledFilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coursevault_bundled_files_total",
			Help: "Total number of per-course export files swept into bundles",
		},
	)

	ConsolidationErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coursevault_consolidation_errors_total",
			Help: "Total number of failed bundle creations or source removals",
		},
	)

	// Retention Metrics
	PrunedFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursevault_pruned_files_total",
			Help: "Total number of artifacts removed by retention passes",
		},
		[]string{"class"},
	)

	PruneErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursevault_prune_errors_total",
			Help: "Total number of artifact deletions that failed during retention passes",
		},
		[]string{"class"},
	)

	RetainedFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coursevault_retained_files",
			Help: "Number of artifacts kept after the last retention pass",
		},
		[]string{"class"},
	)

	// API Metrics (daemon mode)
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursevault_api_requests_total",
			Help: "Total number of status API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coursevault_api_request_duration_seconds",
			Help:    "Status API request duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"method", "route"},
	)
)

// RecordRun records the end of a backup run.
func RecordRun(status string, duration time.Duration, succeeded, failed, skipped int) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(duration.Seconds())
	LastRunTimestamp.Set(float64(time.Now().Unix()))
	LastRunCourses.WithLabelValues(OutcomeSuccess).Set(float64(succeeded))
	LastRunCourses.WithLabelValues(OutcomeFailed).Set(float64(failed))
	LastRunCourses.WithLabelValues(OutcomeSkippedMissingData).Set(float64(skipped))
}

// RecordCourseExport records one course export attempt.
func RecordCourseExport(outcome string, duration time.Duration) {
	CourseExportsTotal.WithLabelValues(outcome).Inc()
	CourseExportDuration.Observe(duration.Seconds())
}

// RecordConsolidation records a consolidation pass. files is the number of
// export files placed in the bundle; zero files with no error is a no-op pass.
func RecordConsolidation(files int, err error) {
	if err != nil {
		ConsolidationErrorsTotal.Inc()
		return
	}
	if files > 0 {
		BundlesCreatedTotal.Inc()
		BundledFilesTotal.Add(float64(files))
	}
}

// RecordPrune records the result of one retention pass.
func RecordPrune(class string, kept, deleted, failed int) {
	RetainedFiles.WithLabelValues(class).Set(float64(kept))
	PrunedFilesTotal.WithLabelValues(class).Add(float64(deleted))
	if failed > 0 {
		PruneErrorsTotal.WithLabelValues(class).Add(float64(failed))
	}
}

// RecordAPIRequest records one status API request. route is the matched route
// pattern, not the raw path.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// WriteTextfile writes the default registry to path in the Prometheus text
// format, for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create metrics textfile directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
