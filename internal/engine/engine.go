package engine

import (
	"context"
	"encoding/json"

	"github.com/area-labs/area-core/internal/area"
	"github.com/area-labs/area-core/internal/plugin"
)

// Repository is the slice of area persistence the engine needs.
type Repository interface {
	ListTriggerBindings(ctx context.Context, service, action string) ([]area.TriggerBinding, error)
	ListReactions(ctx context.Context, areaID string) ([]area.ReactionBinding, error)
	UpdateLastState(ctx context.Context, bindingID string, state json.RawMessage) error
}

// Resolver looks up registered plugin members. Implemented by plugin.Registry.
type Resolver interface {
	ResolveAction(service, name string) (plugin.Action, error)
	ResolveReaction(service, name string) (plugin.Reaction, error)
}

// JobTable is the scheduler surface the evaluator needs to retire jobs
// whose last qualifying binding has gone away.
type JobTable interface {
	RemoveJob(service, action string)
}

// EventSink receives engine events for live clients. Implemented by the
// API websocket hub.
type EventSink interface {
	BroadcastEvent(eventType string, payload any)
}

// Metrics records engine activity. Implemented by the metrics recorder;
// a no-op implementation is used when metrics are disabled.
type Metrics interface {
	RecordFiring(service, action string, fired, failed int)
	RecordExecution(areaID, service, reaction string, ok bool)
}

// Logger defines the logging interface used by the engine.
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

// NoopEvents discards engine events.
type NoopEvents struct{}

func (NoopEvents) BroadcastEvent(string, any) {}

// NoopMetrics discards engine metrics.
type NoopMetrics struct{}

func (NoopMetrics) RecordFiring(string, string, int, int)        {}
func (NoopMetrics) RecordExecution(string, string, string, bool) {}
