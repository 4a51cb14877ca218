package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// Runner is the scheduler's callback target: the trigger evaluator.
// Implemented by engine.Evaluator.
type Runner interface {
	Evaluate(ctx context.Context, service, action string)
}

// TriggerKey identifies one trigger and its evaluation interval.
type TriggerKey struct {
	Service string
	Action  string
	Cron    string
}

// Logger defines the logging interface used by the Scheduler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Scheduler maintains one in-process cron job per referenced trigger
// identity. Jobs are keyed by the composite "service/action" ref: every
// binding sharing a trigger shares one job and is re-checked inside one
// firing, whatever its config says.
//
// The job table lives only in memory. The binding store is the durable
// state; Reconcile rebuilds the table from it at boot.
//
// All public methods are thread-safe.
type Scheduler struct {
	runner Runner
	cron   *cron.Cron
	logger Logger

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

// New creates a Scheduler dispatching firings to the given runner.
func New(runner Runner) *Scheduler {
	return &Scheduler{
		runner: runner,
		cron:   cron.New(),
		jobs:   make(map[string]cron.EntryID),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the scheduler.
func (s *Scheduler) SetLogger(logger Logger) {
	s.logger = logger
}

// Start begins firing scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts firing and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// EnsureJob registers a cron job for the trigger if none exists.
// Idempotent: enabling a second area on an already-scheduled trigger is a
// no-op. Standard 5-field cron expressions.
func (s *Scheduler) EnsureJob(service, action, cronSpec string) error {
	ref := service + "/" + action

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[ref]; exists {
		return nil
	}

	id, err := s.cron.AddFunc(cronSpec, func() {
		// Each firing runs to completion independently of shutdown;
		// the evaluator applies its own per-check timeouts.
		s.runner.Evaluate(context.Background(), service, action)
	})
	if err != nil {
		return fmt.Errorf("scheduling %s (%q): %w", ref, cronSpec, err)
	}

	s.jobs[ref] = id
	s.logger.Info("job scheduled", "trigger", ref, "cron", cronSpec)
	return nil
}

// RemoveJob deletes the trigger's cron job if present. Idempotent.
func (s *Scheduler) RemoveJob(service, action string) {
	ref := service + "/" + action

	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.jobs[ref]
	if !exists {
		return
	}

	s.cron.Remove(id)
	delete(s.jobs, ref)
	s.logger.Info("job removed", "trigger", ref)
}

// JobExists reports whether the trigger currently has a job.
func (s *Scheduler) JobExists(service, action string) bool {
	ref := service + "/" + action

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.jobs[ref]
	return exists
}

// JobCount returns the number of scheduled jobs.
func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Reconcile rebuilds the job table from the current set of enabled,
// non-public bindings. Called at boot so the in-memory table always
// reflects the store, whatever state a previous process left behind.
func (s *Scheduler) Reconcile(keys []TriggerKey) error {
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k.Service+"/"+k.Action] = true
		if err := s.EnsureJob(k.Service, k.Action, k.Cron); err != nil {
			// A bad cron spec on one trigger must not block the rest
			s.logger.Error("reconcile: scheduling failed",
				"trigger", k.Service+"/"+k.Action, "error", err)
		}
	}

	// Drop jobs for triggers no longer referenced
	s.mu.Lock()
	var stale []string
	for ref := range s.jobs {
		if !wanted[ref] {
			stale = append(stale, ref)
		}
	}
	for _, ref := range stale {
		s.cron.Remove(s.jobs[ref])
		delete(s.jobs, ref)
	}
	s.mu.Unlock()

	s.logger.Info("scheduler reconciled", "jobs", len(keys), "removed", len(stale))
	return nil
}
