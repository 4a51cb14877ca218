// Package webhook provides generic HTTP triggers and reactions: a poller
// that fires when a URL's response changes, and a reaction that POSTs the
// trigger's event payload as JSON.
package webhook

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/area-labs/area-core/internal/plugin"
)

// maxBodyBytes caps the response body read when hashing.
const maxBodyBytes = 1 << 20

// Service is the webhook service.
type Service struct {
	client *http.Client
}

// New creates the webhook service.
func New() *Service {
	return &Service{client: &http.Client{Timeout: 15 * time.Second}}
}

// NewWithClient creates the service with an injected HTTP client.
func NewWithClient(c *http.Client) *Service {
	return &Service{client: c}
}

func (s *Service) Name() string        { return "webhook" }
func (s *Service) Description() string { return "Generic HTTP polling and callbacks" }
func (s *Service) Category() string    { return "developer" }
func (s *Service) Colour() string      { return "#3d9970" }
func (s *Service) RequiresAuth() bool  { return false }

func (s *Service) Actions() []plugin.Action {
	return []plugin.Action{&statusChanged{svc: s}}
}

func (s *Service) Reactions() []plugin.Reaction {
	return []plugin.Reaction{&postJSON{svc: s}}
}

// observation is the last_state payload: the status code and a hash of
// the body from the previous poll.
type observation struct {
	Status   int    `json:"status"`
	BodyHash string `json:"body_hash"`
}

// observe polls the URL once. Any response, error status included, is a
// valid observation; only transport failures are errors.
func (s *Service) observe(ctx context.Context, url string) (observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return observation{}, fmt.Errorf("webhook: building request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return observation{}, fmt.Errorf("webhook: polling: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return observation{}, fmt.Errorf("webhook: reading body: %w", err)
	}

	sum := sha256.Sum256(body)
	return observation{
		Status:   resp.StatusCode,
		BodyHash: hex.EncodeToString(sum[:]),
	}, nil
}

// ─── status_changed ─────────────────────────────────────────────────────────

// statusChanged fires when the polled URL's status code or body changes
// between checks.
type statusChanged struct {
	svc *Service
}

func (a *statusChanged) Name() string        { return "status_changed" }
func (a *statusChanged) Description() string { return "Fires when a URL's response changes" }

func (a *statusChanged) Schema() []plugin.ConfigField {
	return []plugin.ConfigField{
		{Name: "url", Type: plugin.FieldString, Required: true,
			Description: "URL to poll"},
	}
}

func (a *statusChanged) Cron() string { return "*/5 * * * *" }

func (a *statusChanged) Check(ctx context.Context, req plugin.CheckRequest) (plugin.CheckResult, error) {
	url, ok := plugin.String(req.Config, "url")
	if !ok {
		return plugin.CheckResult{}, fmt.Errorf("%w: url", plugin.ErrMissingConfig)
	}

	current, err := a.svc.observe(ctx, url)
	if err != nil {
		return plugin.CheckResult{}, err
	}

	if !req.State.Seen() {
		return plugin.CheckResult{}, req.State.Set(current)
	}

	var prev observation
	if err := req.State.Decode(&prev); err != nil {
		return plugin.CheckResult{}, err
	}
	if prev == current {
		return plugin.CheckResult{}, nil
	}
	if err := req.State.Set(current); err != nil {
		return plugin.CheckResult{}, err
	}

	return plugin.CheckResult{
		Fired: true,
		Event: map[string]any{
			"url":             url,
			"status":          current.Status,
			"previous_status": prev.Status,
			"body_changed":    current.BodyHash != prev.BodyHash,
		},
	}, nil
}

// ─── post_json ──────────────────────────────────────────────────────────────

// postJSON delivers the trigger's event payload to a URL as a JSON POST.
type postJSON struct {
	svc *Service
}

func (r *postJSON) Name() string        { return "post_json" }
func (r *postJSON) Description() string { return "POST the trigger event to a URL as JSON" }

func (r *postJSON) Schema() []plugin.ConfigField {
	return []plugin.ConfigField{
		{Name: "url", Type: plugin.FieldString, Required: true,
			Description: "Destination URL"},
	}
}

func (r *postJSON) Execute(ctx context.Context, req plugin.ExecuteRequest) error {
	url, ok := plugin.String(req.Config, "url")
	if !ok {
		return fmt.Errorf("%w: url", plugin.ErrMissingConfig)
	}

	payload := map[string]any{
		"area_id": req.AreaID,
		"event":   req.Event,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: encoding payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.svc.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("webhook: posting: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook: destination returned status %d", resp.StatusCode)
	}
	return nil
}
