// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package services

import (
	"context"
	"fmt"
)

// StartStopScheduler matches the lifecycle of *backup.Scheduler.
type StartStopScheduler interface {
	Start(ctx context.Context) error
	Stop()
}

// SchedulerService wraps the backup scheduler as a supervised service.
//
// Start receives the service context, so a scheduled run in progress sees
// cancellation and stops before its next course. Stop blocks until that run
// has returned.
type SchedulerService struct {
	scheduler StartStopScheduler
	name      string
}

// NewSchedulerService creates a new scheduler service wrapper.
func NewSchedulerService(scheduler StartStopScheduler) *SchedulerService {
	return &SchedulerService{
		scheduler: scheduler,
		name:      "backup-scheduler",
	}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("backup scheduler start failed: %w", err)
	}

	<-ctx.Done()
	s.scheduler.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer.
func (s *SchedulerService) String() string {
	return s.name
}
