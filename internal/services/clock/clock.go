// Package clock provides purely time-based triggers. No external API and
// no authentication: the "external state" being observed is the wall
// clock, and last_state records the last period bucket that fired so each
// period fires at most once.
package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/area-labs/area-core/internal/plugin"
)

// Service is the clock service. The zero value is not usable; call New.
type Service struct {
	now func() time.Time
}

// New creates the clock service reading the system clock.
func New() *Service {
	return &Service{now: time.Now}
}

// NewWithClock creates the service with an injected clock for tests.
func NewWithClock(now func() time.Time) *Service {
	return &Service{now: now}
}

func (s *Service) Name() string        { return "clock" }
func (s *Service) Description() string { return "Time-based triggers" }
func (s *Service) Category() string    { return "time" }
func (s *Service) Colour() string      { return "#6a5acd" }
func (s *Service) RequiresAuth() bool  { return false }

func (s *Service) Actions() []plugin.Action {
	return []plugin.Action{
		&everyMinute{svc: s},
		&everyHourAt{svc: s},
		&dailyAt{svc: s},
	}
}

func (s *Service) Reactions() []plugin.Reaction { return nil }

// bucketState is the envelope payload for the periodic triggers: the last
// period bucket (hour or day key) that produced a firing.
type bucketState struct {
	LastBucket string `json:"last_bucket"`
}

// timeEvent is the payload every clock trigger hands to conditions and
// reactions.
func timeEvent(t time.Time) map[string]any {
	return map[string]any{
		"time":    t.Format(time.RFC3339),
		"hour":    t.Hour(),
		"minute":  t.Minute(),
		"weekday": t.Weekday().String(),
	}
}

// ─── every_minute ───────────────────────────────────────────────────────────

// everyMinute fires on every scheduled check. It carries no state: the
// cron cadence is the deduplication.
type everyMinute struct {
	svc *Service
}

func (a *everyMinute) Name() string                 { return "every_minute" }
func (a *everyMinute) Description() string          { return "Fires once every minute" }
func (a *everyMinute) Schema() []plugin.ConfigField { return nil }
func (a *everyMinute) Cron() string                 { return "* * * * *" }

func (a *everyMinute) Check(_ context.Context, _ plugin.CheckRequest) (plugin.CheckResult, error) {
	return plugin.CheckResult{Fired: true, Event: timeEvent(a.svc.now())}, nil
}

// ─── every_hour_at ──────────────────────────────────────────────────────────

// everyHourAt fires once per hour when the current minute matches the
// configured one. Checked every minute; the hour bucket in last_state
// stops a slow check cycle from firing the same hour twice.
type everyHourAt struct {
	svc *Service
}

func (a *everyHourAt) Name() string        { return "every_hour_at" }
func (a *everyHourAt) Description() string { return "Fires once per hour at a fixed minute" }

func (a *everyHourAt) Schema() []plugin.ConfigField {
	return []plugin.ConfigField{
		{
			Name:     "minute",
			Type:     plugin.FieldSelect,
			Required: true,
			Options:  []string{"00", "15", "30", "45"},
		},
	}
}

func (a *everyHourAt) Cron() string { return "* * * * *" }

func (a *everyHourAt) Check(_ context.Context, req plugin.CheckRequest) (plugin.CheckResult, error) {
	minute, ok := plugin.Int(req.Config, "minute")
	if !ok {
		return plugin.CheckResult{}, fmt.Errorf("%w: minute", plugin.ErrMissingConfig)
	}

	now := a.svc.now()
	if now.Minute() != minute {
		return plugin.CheckResult{}, nil
	}

	bucket := now.Format("2006-01-02T15")
	fire, err := advanceBucket(req.State, bucket)
	if err != nil || !fire {
		return plugin.CheckResult{}, err
	}
	return plugin.CheckResult{Fired: true, Event: timeEvent(now)}, nil
}

// ─── daily_at ───────────────────────────────────────────────────────────────

// dailyAt fires once per day at a fixed HH:MM.
type dailyAt struct {
	svc *Service
}

func (a *dailyAt) Name() string        { return "daily_at" }
func (a *dailyAt) Description() string { return "Fires once per day at a fixed time" }

func (a *dailyAt) Schema() []plugin.ConfigField {
	return []plugin.ConfigField{
		{Name: "hour", Type: plugin.FieldNumber, Required: true},
		{Name: "minute", Type: plugin.FieldNumber, Required: true},
	}
}

func (a *dailyAt) Cron() string { return "* * * * *" }

func (a *dailyAt) Check(_ context.Context, req plugin.CheckRequest) (plugin.CheckResult, error) {
	hour, ok := plugin.Int(req.Config, "hour")
	if !ok {
		return plugin.CheckResult{}, fmt.Errorf("%w: hour", plugin.ErrMissingConfig)
	}
	minute, ok := plugin.Int(req.Config, "minute")
	if !ok {
		return plugin.CheckResult{}, fmt.Errorf("%w: minute", plugin.ErrMissingConfig)
	}

	now := a.svc.now()
	if now.Hour() != hour || now.Minute() != minute {
		return plugin.CheckResult{}, nil
	}

	bucket := now.Format("2006-01-02")
	fire, err := advanceBucket(req.State, bucket)
	if err != nil || !fire {
		return plugin.CheckResult{}, err
	}
	return plugin.CheckResult{Fired: true, Event: timeEvent(now)}, nil
}

// advanceBucket records bucket in state and reports whether it is new.
// The first ever check records without firing, matching the edge-trigger
// contract for stateful triggers.
func advanceBucket(state *plugin.State, bucket string) (bool, error) {
	if !state.Seen() {
		return false, state.Set(bucketState{LastBucket: bucket})
	}

	var prev bucketState
	if err := state.Decode(&prev); err != nil {
		return false, err
	}
	if prev.LastBucket == bucket {
		return false, nil
	}
	return true, state.Set(bucketState{LastBucket: bucket})
}
