// Package weather provides threshold-crossing temperature triggers backed
// by the Open-Meteo forecast API. No API key is required.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/area-labs/area-core/internal/plugin"
)

const defaultBaseURL = "https://api.open-meteo.com"

// Service is the Open-Meteo weather service.
type Service struct {
	client  *http.Client
	baseURL string
}

// Option configures the service.
type Option func(*Service)

// WithBaseURL points the service at a different API host. Used by tests.
func WithBaseURL(u string) Option {
	return func(s *Service) { s.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.client = c }
}

// New creates the weather service.
func New(opts ...Option) *Service {
	s := &Service{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBaseURL,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Name() string        { return "weather" }
func (s *Service) Description() string { return "Weather conditions via Open-Meteo" }
func (s *Service) Category() string    { return "weather" }
func (s *Service) Colour() string      { return "#2596be" }
func (s *Service) RequiresAuth() bool  { return false }

func (s *Service) Actions() []plugin.Action {
	return []plugin.Action{
		&thresholdAction{svc: s, name: "temperature_rises_above", above: true},
		&thresholdAction{svc: s, name: "temperature_falls_below", above: false},
	}
}

func (s *Service) Reactions() []plugin.Reaction { return nil }

// currentTemperature queries the forecast endpoint for the present
// temperature at a coordinate.
func (s *Service) currentTemperature(ctx context.Context, latitude, longitude string) (float64, error) {
	q := url.Values{
		"latitude":  {latitude},
		"longitude": {longitude},
		"current":   {"temperature_2m"},
		"timezone":  {"auto"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("weather: building request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("weather: fetching forecast: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("weather: forecast returned status %d", resp.StatusCode)
	}

	var payload struct {
		Current struct {
			Temperature float64 `json:"temperature_2m"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("weather: decoding forecast: %w", err)
	}
	return payload.Current.Temperature, nil
}

// thresholdState tracks which side of the threshold the last observation
// sat on, so a binding fires on the crossing rather than on every check
// while the condition holds.
type thresholdState struct {
	Breached bool `json:"breached"`
}

// thresholdAction fires when the temperature crosses a configured limit
// in one direction.
type thresholdAction struct {
	svc   *Service
	name  string
	above bool
}

func (a *thresholdAction) Name() string { return a.name }

func (a *thresholdAction) Description() string {
	if a.above {
		return "Fires when the temperature rises above a limit"
	}
	return "Fires when the temperature falls below a limit"
}

func (a *thresholdAction) Schema() []plugin.ConfigField {
	return []plugin.ConfigField{
		{Name: "threshold", Type: plugin.FieldNumber, Required: true,
			Description: "Temperature limit in °C"},
		{Name: "latitude", Type: plugin.FieldString, Required: true},
		{Name: "longitude", Type: plugin.FieldString, Required: true},
	}
}

func (a *thresholdAction) Cron() string { return "*/15 * * * *" }

func (a *thresholdAction) Check(ctx context.Context, req plugin.CheckRequest) (plugin.CheckResult, error) {
	threshold, ok := plugin.Float(req.Config, "threshold")
	if !ok {
		return plugin.CheckResult{}, fmt.Errorf("%w: threshold", plugin.ErrMissingConfig)
	}
	latitude, ok := plugin.String(req.Config, "latitude")
	if !ok {
		return plugin.CheckResult{}, fmt.Errorf("%w: latitude", plugin.ErrMissingConfig)
	}
	longitude, ok := plugin.String(req.Config, "longitude")
	if !ok {
		return plugin.CheckResult{}, fmt.Errorf("%w: longitude", plugin.ErrMissingConfig)
	}

	temp, err := a.svc.currentTemperature(ctx, latitude, longitude)
	if err != nil {
		return plugin.CheckResult{}, err
	}

	breached := temp > threshold
	if !a.above {
		breached = temp < threshold
	}

	if !req.State.Seen() {
		return plugin.CheckResult{}, req.State.Set(thresholdState{Breached: breached})
	}

	var prev thresholdState
	if err := req.State.Decode(&prev); err != nil {
		return plugin.CheckResult{}, err
	}
	if prev.Breached == breached {
		return plugin.CheckResult{}, nil
	}
	if err := req.State.Set(thresholdState{Breached: breached}); err != nil {
		return plugin.CheckResult{}, err
	}
	if !breached {
		// Crossed back out of the configured zone: remember it silently
		return plugin.CheckResult{}, nil
	}

	return plugin.CheckResult{
		Fired: true,
		Event: map[string]any{
			"temperature": temp,
			"threshold":   threshold,
			"latitude":    latitude,
			"longitude":   longitude,
			"direction":   directionLabel(a.above),
		},
	}, nil
}

func directionLabel(above bool) string {
	if above {
		return "above"
	}
	return "below"
}