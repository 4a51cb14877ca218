package scheduler

import (
	"context"
	"sync"
	"testing"
)

// recordingRunner records Evaluate calls.
type recordingRunner struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingRunner) Evaluate(_ context.Context, service, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, service+"/"+action)
}

func TestScheduler_EnsureJob(t *testing.T) {
	s := New(&recordingRunner{})

	if err := s.EnsureJob("clock", "every_minute", "* * * * *"); err != nil {
		t.Fatalf("EnsureJob() error = %v", err)
	}

	if !s.JobExists("clock", "every_minute") {
		t.Error("job should exist after EnsureJob")
	}
	if s.JobCount() != 1 {
		t.Errorf("JobCount() = %d, want 1", s.JobCount())
	}

	// Idempotent: second call for the same trigger is a no-op
	if err := s.EnsureJob("clock", "every_minute", "* * * * *"); err != nil {
		t.Fatalf("second EnsureJob() error = %v", err)
	}
	if s.JobCount() != 1 {
		t.Errorf("JobCount() after duplicate = %d, want 1", s.JobCount())
	}
}

func TestScheduler_EnsureJob_BadCronSpec(t *testing.T) {
	s := New(&recordingRunner{})

	if err := s.EnsureJob("clock", "every_minute", "not a cron spec"); err == nil {
		t.Fatal("EnsureJob() with invalid spec should error")
	}
	if s.JobExists("clock", "every_minute") {
		t.Error("failed EnsureJob must not leave a job behind")
	}
}

func TestScheduler_RemoveJob(t *testing.T) {
	s := New(&recordingRunner{})

	if err := s.EnsureJob("feed", "new_item", "*/5 * * * *"); err != nil {
		t.Fatalf("EnsureJob() error = %v", err)
	}

	s.RemoveJob("feed", "new_item")
	if s.JobExists("feed", "new_item") {
		t.Error("job should not exist after RemoveJob")
	}

	// Idempotent
	s.RemoveJob("feed", "new_item")
	if s.JobCount() != 0 {
		t.Errorf("JobCount() = %d, want 0", s.JobCount())
	}
}

func TestScheduler_Reconcile(t *testing.T) {
	s := New(&recordingRunner{})

	// Pre-existing job that the store no longer references
	if err := s.EnsureJob("clock", "every_minute", "* * * * *"); err != nil {
		t.Fatalf("EnsureJob() error = %v", err)
	}

	keys := []TriggerKey{
		{Service: "weather", Action: "temperature_rises_above", Cron: "*/15 * * * *"},
		{Service: "feed", Action: "new_item", Cron: "*/5 * * * *"},
	}
	if err := s.Reconcile(keys); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if s.JobExists("clock", "every_minute") {
		t.Error("stale job should be removed by Reconcile")
	}
	if !s.JobExists("weather", "temperature_rises_above") {
		t.Error("reconciled trigger missing a job")
	}
	if !s.JobExists("feed", "new_item") {
		t.Error("reconciled trigger missing a job")
	}
	if s.JobCount() != 2 {
		t.Errorf("JobCount() = %d, want 2", s.JobCount())
	}
}

func TestScheduler_Reconcile_BadSpecDoesNotBlock(t *testing.T) {
	s := New(&recordingRunner{})

	keys := []TriggerKey{
		{Service: "broken", Action: "trigger", Cron: "banana"},
		{Service: "feed", Action: "new_item", Cron: "*/5 * * * *"},
	}
	if err := s.Reconcile(keys); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if s.JobExists("broken", "trigger") {
		t.Error("invalid spec must not be scheduled")
	}
	if !s.JobExists("feed", "new_item") {
		t.Error("valid trigger should still be scheduled")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(&recordingRunner{})

	if err := s.EnsureJob("clock", "every_minute", "* * * * *"); err != nil {
		t.Fatalf("EnsureJob() error = %v", err)
	}

	s.Start()
	s.Stop() // must not deadlock with jobs registered
}
