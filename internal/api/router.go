// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/coursevault/internal/backup"
)

// StatusProvider exposes the summary of the most recent run.
// *backup.Runner implements it.
type StatusProvider interface {
	LastSummary() *backup.Summary
}

// NextRunProvider exposes the next scheduled run time.
// *backup.Scheduler implements it.
type NextRunProvider interface {
	NextRun() *time.Time
}

// Router serves the daemon's HTTP endpoints.
type Router struct {
	status    StatusProvider
	schedule  NextRunProvider
	rateLimit int
}

// NewRouter creates a router. schedule may be nil.
func NewRouter(status StatusProvider, schedule NextRunProvider, rateLimit int) *Router {
	return &Router{status: status, schedule: schedule, rateLimit: rateLimit}
}

// Handler builds the chi handler with all routes.
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Instrument())
	r.Use(RequestLogging())
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", router.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(router.rateLimit))
		r.Get("/status", router.Status)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Health reports that the process is alive.
func (router *Router) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok")) //nolint:errcheck // Client may have gone away
}

// Status returns the summary of the last run.
func (router *Router) Status(w http.ResponseWriter, _ *http.Request) {
	meta := Metadata{Timestamp: time.Now()}
	if router.schedule != nil {
		meta.NextRun = router.schedule.NextRun()
	}

	summary := router.status.LastSummary()
	if summary == nil {
		respondJSON(w, http.StatusNotFound, &APIResponse{
			Status:   "error",
			Metadata: meta,
			Error:    &APIError{Code: "NO_RUN", Message: "No backup run has finished yet"},
		})
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Status:   "success",
		Data:     summary,
		Metadata: meta,
	})
}
