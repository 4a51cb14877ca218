package plugin

import (
	"context"
)

// Service is a connected external system offering triggers (Actions) and
// effects (Reactions). One instance exists per process lifetime; the set of
// Actions and Reactions is fixed after registration.
type Service interface {
	// Name is the unique service identifier (e.g. "weather").
	Name() string

	// Description is a human-readable summary for the catalogue.
	Description() string

	// Category groups the service in the catalogue (e.g. "utility").
	Category() string

	// Colour is the hex display colour for clients (#RRGGBB).
	Colour() string

	// RequiresAuth reports whether bindings need a per-user service token.
	RequiresAuth() bool

	// Actions returns the service's triggers.
	Actions() []Action

	// Reactions returns the service's effects.
	Reactions() []Reaction
}

// Action is a trigger: a periodically evaluated condition against external
// state. Actions are stateless; all per-binding data arrives in the
// CheckRequest.
type Action interface {
	// Name is unique within the owning service.
	Name() string

	// Description is a human-readable summary for the catalogue.
	Description() string

	// Schema declares the config fields a binding must provide.
	Schema() []ConfigField

	// Cron is the default evaluation interval as a 5-field cron expression.
	Cron() string

	// Check evaluates the trigger for one binding. It must diff fresh
	// external state against req.State and report Fired only for a NEW
	// occurrence. Check is the sole writer of req.State.
	Check(ctx context.Context, req CheckRequest) (CheckResult, error)
}

// Reaction is an effect executed when a bound trigger fires. Reactions are
// stateless; all per-binding data arrives in the ExecuteRequest.
type Reaction interface {
	// Name is unique within the owning service.
	Name() string

	// Description is a human-readable summary for the catalogue.
	Description() string

	// Schema declares the config fields a binding must provide.
	Schema() []ConfigField

	// Execute performs the effect once.
	Execute(ctx context.Context, req ExecuteRequest) error
}

// CheckRequest carries one binding's data into an Action's Check.
type CheckRequest struct {
	// UserID owns the binding. OAuth-backed services use it to look up
	// the user's token.
	UserID string

	// AreaID identifies the owning area (for logging and events).
	AreaID string

	// Config holds the binding's values for the Action's schema.
	Config map[string]any

	// State is the binding's last_state envelope. Never nil; a fresh
	// binding arrives with an unseen State.
	State *State
}

// CheckResult reports the outcome of one trigger check.
type CheckResult struct {
	// Fired is true when a new occurrence was detected.
	Fired bool

	// Event carries the occurrence payload: flat comparable fields used
	// by reaction conditions and passed to reactions. Only meaningful
	// when Fired is true.
	Event map[string]any
}

// ExecuteRequest carries one reaction binding's data into Execute.
type ExecuteRequest struct {
	UserID string
	AreaID string

	// Config holds the binding's values for the Reaction's schema.
	Config map[string]any

	// Event is the payload produced by the triggering Action's Check.
	Event map[string]any
}

// TokenLookup resolves a user's stored credential for an OAuth-backed
// service. Implemented by the auth token store.
type TokenLookup interface {
	AccessToken(ctx context.Context, userID, service string) (string, error)
}

// Logger defines the logging interface used by plugins and the registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NoopLogger is a Logger that does nothing.
type NoopLogger struct{}

func (NoopLogger) Debug(string, ...any) {}
func (NoopLogger) Info(string, ...any)  {}
func (NoopLogger) Warn(string, ...any)  {}
func (NoopLogger) Error(string, ...any) {}
