// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package backup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewScheduler_InvalidSpec(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{"", "not a schedule", "61 * * * *", "* * * * * *"} {
		if _, err := NewScheduler(spec, func(context.Context) {}, false); err == nil {
			t.Errorf("NewScheduler(%q) expected error", spec)
		}
	}
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler("0 2 * * *", func(context.Context) {}, false)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	if s.IsRunning() || s.NextRun() != nil {
		t.Fatal("new scheduler must be stopped")
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Errorf("second Start() should be a no-op, got %v", err)
	}
	if !s.IsRunning() {
		t.Error("expected scheduler to be running")
	}

	next := s.NextRun()
	if next == nil {
		t.Fatal("expected a next run time")
	}
	if next.Hour() != 2 || next.Minute() != 0 || !next.After(time.Now()) {
		t.Errorf("unexpected next run %v", next)
	}

	s.Stop()
	s.Stop()
	if s.IsRunning() || s.NextRun() != nil {
		t.Error("expected scheduler to be stopped")
	}
}

func TestScheduler_RunOnStartAndStopWaits(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	var finished atomic.Bool
	job := func(context.Context) {
		close(started)
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
	}

	s, err := NewScheduler("0 2 * * *", job, true)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("run-on-start job did not fire")
	}

	s.Stop()
	if !finished.Load() {
		t.Error("Stop returned before the running job finished")
	}
}

func TestScheduler_RecoversJobPanic(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	s, err := NewScheduler("0 2 * * *", func(context.Context) {
		defer close(done)
		panic("job exploded")
	}, true)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
	s.Stop()
}

func TestScheduler_Serve(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler("@every 1h", func(context.Context) {}, false)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for !s.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if s.IsRunning() {
		t.Error("scheduler should be stopped after Serve returns")
	}
}

func TestRunJob(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	src := newFakeSource(Candidate{Code: "A", Active: true})
	exp := newFakeExporter(env.workDir)
	r := env.newTestRunner(t, env.newTestConfig(), src, exp)

	RunJob(r)(context.Background())

	if r.LastSummary() == nil || r.LastSummary().Succeeded != 1 {
		t.Errorf("expected a successful run, got %+v", r.LastSummary())
	}
}
