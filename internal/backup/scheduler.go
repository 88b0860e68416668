// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

/*
scheduler.go - Cron-Driven Backup Runs

The scheduler fires a job on a standard cron expression ("0 2 * * *" for
02:00 daily). A tick that arrives while the previous run is still going is
skipped, so at most one run writes to the backup and log directories at a time.

Stop waits for a running job to finish.
*/

//nolint:staticcheck // File documentation, not package doc
package backup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/coursevault/internal/logging"
)

// Job is the work fired by the scheduler.
type Job func(ctx context.Context)

// RunJob returns a Job that performs a full run of r.
func RunJob(r *Runner) Job {
	return func(ctx context.Context) {
		summary, err := r.Run(ctx, RunOptions{})
		if err != nil {
			logging.Error().Err(err).Msg("Scheduled backup run aborted")
			return
		}
		logging.Info().Str("run_id", summary.RunID).Msg(summary.Line())
	}
}

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	spec       string
	job        Job
	runOnStart bool
	cron       *cron.Cron
	logger     zerolog.Logger

	mu      sync.Mutex
	running bool
	entry   cron.EntryID

	// startup tracks the run-on-start job, which cron.Stop does not wait for
	startup sync.WaitGroup
}

// NewScheduler validates spec and creates a stopped scheduler.
func NewScheduler(spec string, job Job, runOnStart bool) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}

	logger := logging.WithComponent("scheduler")
	cronLog := cronLogger{logger: logger}

	return &Scheduler{
		spec:       spec,
		job:        job,
		runOnStart: runOnStart,
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		logger: logger,
	}, nil
}

// Start registers the job and starts the cron loop. Jobs receive ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	entry, err := s.cron.AddFunc(s.spec, func() { s.job(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule backup runs: %w", err)
	}
	s.entry = entry

	s.cron.Start()
	s.running = true

	s.logger.Info().Str("schedule", s.spec).Msg("Backup scheduler started")

	if s.runOnStart {
		// Through the entry's wrapped job so SkipIfStillRunning applies.
		wrapped := s.cron.Entry(entry).WrappedJob
		s.startup.Add(1)
		go func() {
			defer s.startup.Done()
			wrapped.Run()
		}()
	}
	return nil
}

// Stop stops the scheduler and waits for any running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.startup.Wait()
	s.cron.Remove(s.entry)
	s.running = false
	s.logger.Info().Msg("Backup scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled run time, or nil when stopped.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	next := s.cron.Entry(s.entry).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

// Serve starts the scheduler and blocks until ctx is cancelled, then stops it.
func (s *Scheduler) Serve(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

// cronLogger adapts zerolog to cron.Logger. Routine cron chatter goes to
// debug; skipped overlapping runs are warnings.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	event := l.logger.Debug()
	if msg == "skip" {
		event = l.logger.Warn()
		msg = "Backup run still in progress, skipping scheduled run"
	}
	event.Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
