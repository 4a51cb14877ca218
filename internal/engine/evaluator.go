package engine

import (
	"context"
	"errors"
	"time"

	"github.com/area-labs/area-core/internal/area"
	"github.com/area-labs/area-core/internal/plugin"
)

// defaultCheckTimeout bounds a single trigger check when no budget is
// configured.
const defaultCheckTimeout = 15 * time.Second

// Evaluator runs one trigger firing: it re-checks every qualifying binding
// of a trigger identity and dispatches reactions for the ones that fired.
//
// Failure isolation: an error in one binding's check is logged and the
// loop continues. Nothing is retried within a firing; the next scheduled
// firing is the retry.
type Evaluator struct {
	repo         Repository
	registry     Resolver
	jobs         JobTable
	dispatcher   *Dispatcher
	checkTimeout time.Duration
	logger       Logger
	events       EventSink
	metrics      Metrics
}

// NewEvaluator creates a trigger evaluator.
func NewEvaluator(repo Repository, registry Resolver, jobs JobTable, dispatcher *Dispatcher) *Evaluator {
	return &Evaluator{
		repo:         repo,
		registry:     registry,
		jobs:         jobs,
		dispatcher:   dispatcher,
		checkTimeout: defaultCheckTimeout,
		logger:       noopLogger{},
		events:       NoopEvents{},
		metrics:      NoopMetrics{},
	}
}

// SetLogger sets the logger for the evaluator.
func (e *Evaluator) SetLogger(logger Logger) {
	e.logger = logger
}

// SetEventSink sets the sink for area.fired events.
func (e *Evaluator) SetEventSink(events EventSink) {
	e.events = events
}

// SetMetrics sets the metrics recorder.
func (e *Evaluator) SetMetrics(metrics Metrics) {
	e.metrics = metrics
}

// SetCheckTimeout overrides the per-check timeout budget.
func (e *Evaluator) SetCheckTimeout(d time.Duration) {
	if d > 0 {
		e.checkTimeout = d
	}
}

// Evaluate runs one firing for the trigger identity.
//
// The trigger's action is resolved once; every binding whose area is
// enabled and not public is then checked independently, grouped by owning
// user. A firing that finds no registered action or no qualifying bindings
// retires its own scheduler job.
func (e *Evaluator) Evaluate(ctx context.Context, service, action string) {
	log := e.logger
	ref := area.TriggerRef(service, action)

	act, err := e.registry.ResolveAction(service, action)
	if err != nil {
		if errors.Is(err, plugin.ErrServiceNotFound) || errors.Is(err, plugin.ErrActionNotFound) {
			// Stale job: the plugin set changed under a persisted binding
			log.Warn("trigger no longer registered, removing job", "trigger", ref)
			e.jobs.RemoveJob(service, action)
			return
		}
		log.Error("resolving trigger", "trigger", ref, "error", err)
		return
	}

	bindings, err := e.repo.ListTriggerBindings(ctx, service, action)
	if err != nil {
		// Store error: abort this firing, keep the job; next firing retries
		log.Error("loading trigger bindings", "trigger", ref, "error", err)
		return
	}

	if len(bindings) == 0 {
		log.Info("no qualifying bindings, removing job", "trigger", ref)
		e.jobs.RemoveJob(service, action)
		return
	}

	fired, failed := 0, 0
	for _, group := range groupByUser(bindings) {
		for _, tb := range group {
			ok, didFire := e.checkBinding(ctx, act, tb)
			if !ok {
				failed++
				continue
			}
			if didFire {
				fired++
			}
		}
	}

	e.metrics.RecordFiring(service, action, fired, failed)
	log.Debug("firing complete",
		"trigger", ref, "bindings", len(bindings), "fired", fired, "failed", failed)
}

// checkBinding evaluates one binding and dispatches its area's reactions
// if the trigger fired. Returns (ok, fired).
func (e *Evaluator) checkBinding(ctx context.Context, act plugin.Action, tb area.TriggerBinding) (bool, bool) {
	log := e.logger
	state := plugin.NewState(tb.Binding.LastState)

	checkCtx, cancel := context.WithTimeout(ctx, e.checkTimeout)
	result, err := act.Check(checkCtx, plugin.CheckRequest{
		UserID: tb.UserID,
		AreaID: tb.AreaID,
		Config: tb.Binding.Config,
		State:  state,
	})
	cancel()

	// Persist the snapshot whenever Check advanced it, even if the check
	// then failed: the snapshot is the check's view of external state and
	// dropping it would re-fire old occurrences next cycle.
	if state.Dirty() {
		if uerr := e.repo.UpdateLastState(ctx, tb.Binding.ID, state.Raw()); uerr != nil {
			log.Error("persisting last_state",
				"area", tb.AreaID, "binding", tb.Binding.ID, "error", uerr)
			return false, false
		}
	}

	if err != nil {
		// Transient external failure: no fire this cycle, retried by the
		// next firing. Not surfaced to the end-user.
		log.Warn("trigger check failed",
			"area", tb.AreaID, "user", tb.UserID, "error", err)
		return false, false
	}

	if !result.Fired {
		return true, false
	}

	log.Info("trigger fired", "area", tb.AreaID, "user", tb.UserID)
	e.events.BroadcastEvent("area.fired", map[string]any{
		"area_id": tb.AreaID,
		"user_id": tb.UserID,
		"trigger": tb.Binding.TriggerRef(),
		"event":   result.Event,
	})

	// Reactions run synchronously in the same pass
	e.dispatcher.Dispatch(ctx, tb.UserID, tb.AreaID, result.Event)
	return true, true
}

// groupByUser partitions bindings by owning user, preserving order.
// Bindings arrive sorted by user from the repository.
func groupByUser(bindings []area.TriggerBinding) [][]area.TriggerBinding {
	var groups [][]area.TriggerBinding
	var current []area.TriggerBinding

	for _, b := range bindings {
		if len(current) > 0 && current[len(current)-1].UserID != b.UserID {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, b)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}
