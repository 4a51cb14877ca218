package engine

import (
	"context"
	"time"

	"github.com/area-labs/area-core/internal/plugin"
)

// defaultExecuteTimeout bounds a single reaction execution when no budget
// is configured.
const defaultExecuteTimeout = 30 * time.Second

// Dispatcher executes an area's reaction chain after its trigger fires.
//
// Reactions run sequentially in order_index order, best-effort: a failing
// reaction is logged and the chain continues. There is no atomicity and no
// rollback; the stored delay field is not enforced.
type Dispatcher struct {
	repo           Repository
	registry       Resolver
	executeTimeout time.Duration
	logger         Logger
	events         EventSink
	metrics        Metrics
}

// NewDispatcher creates a reaction dispatcher.
func NewDispatcher(repo Repository, registry Resolver) *Dispatcher {
	return &Dispatcher{
		repo:           repo,
		registry:       registry,
		executeTimeout: defaultExecuteTimeout,
		logger:         noopLogger{},
		events:         NoopEvents{},
		metrics:        NoopMetrics{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// SetEventSink sets the sink for reaction.executed events.
func (d *Dispatcher) SetEventSink(events EventSink) {
	d.events = events
}

// SetMetrics sets the metrics recorder.
func (d *Dispatcher) SetMetrics(metrics Metrics) {
	d.metrics = metrics
}

// SetExecuteTimeout overrides the per-reaction timeout budget.
func (d *Dispatcher) SetExecuteTimeout(t time.Duration) {
	if t > 0 {
		d.executeTimeout = t
	}
}

// Dispatch runs the area's reactions against the trigger's event payload.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, areaID string, event map[string]any) {
	log := d.logger

	reactions, err := d.repo.ListReactions(ctx, areaID)
	if err != nil {
		log.Error("loading reactions", "area", areaID, "error", err)
		return
	}

	for _, rb := range reactions {
		re, err := d.registry.ResolveReaction(rb.Service, rb.Reaction)
		if err != nil {
			// Configuration error: fatal to this entry, never retried
			log.Error("reaction not registered",
				"area", areaID, "reaction", rb.Service+"/"+rb.Reaction, "error", err)
			continue
		}

		if !Passes(rb.Conditions, event) {
			log.Debug("conditions not met, skipping reaction",
				"area", areaID, "reaction", rb.Service+"/"+rb.Reaction)
			continue
		}

		execCtx, cancel := context.WithTimeout(ctx, d.executeTimeout)
		err = re.Execute(execCtx, plugin.ExecuteRequest{
			UserID: userID,
			AreaID: areaID,
			Config: rb.Config,
			Event:  event,
		})
		cancel()

		ok := err == nil
		if !ok {
			log.Warn("reaction failed",
				"area", areaID, "reaction", rb.Service+"/"+rb.Reaction, "error", err)
		}

		d.metrics.RecordExecution(areaID, rb.Service, rb.Reaction, ok)
		d.events.BroadcastEvent("reaction.executed", map[string]any{
			"area_id":  areaID,
			"reaction": rb.Service + "/" + rb.Reaction,
			"order":    rb.OrderIndex,
			"ok":       ok,
		})
	}
}
