// Package reddit provides a subreddit new_post trigger and a submit_post
// reaction. Both call the OAuth API with the caller's stored access
// token; the authorization dance itself happens outside AREA Core, which
// only reads tokens from the per-user store.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/area-labs/area-core/internal/plugin"
)

const (
	defaultBaseURL   = "https://oauth.reddit.com"
	defaultUserAgent = "areacore/1.0"
)

// Service is the reddit service.
type Service struct {
	client    *http.Client
	tokens    plugin.TokenLookup
	baseURL   string
	userAgent string
}

// Option configures the service.
type Option func(*Service)

// WithBaseURL points the service at a different API host. Used by tests.
func WithBaseURL(u string) Option {
	return func(s *Service) { s.baseURL = u }
}

// WithUserAgent overrides the User-Agent header. Reddit requires a
// descriptive one in production.
func WithUserAgent(ua string) Option {
	return func(s *Service) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// New creates the reddit service reading tokens from the given store.
func New(tokens plugin.TokenLookup, opts ...Option) *Service {
	s := &Service{
		client:    &http.Client{Timeout: 15 * time.Second},
		tokens:    tokens,
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Name() string        { return "reddit" }
func (s *Service) Description() string { return "Reddit posts and submissions" }
func (s *Service) Category() string    { return "social" }
func (s *Service) Colour() string      { return "#ff4500" }
func (s *Service) RequiresAuth() bool  { return true }

func (s *Service) Actions() []plugin.Action {
	return []plugin.Action{&newPost{svc: s}}
}

func (s *Service) Reactions() []plugin.Reaction {
	return []plugin.Reaction{&submitPost{svc: s}}
}

// token fetches the caller's access token from the store.
func (s *Service) token(ctx context.Context, userID string) (string, error) {
	token, err := s.tokens.AccessToken(ctx, userID, "reddit")
	if err != nil {
		return "", fmt.Errorf("reddit: %w", err)
	}
	return token, nil
}

// post is one subreddit submission reduced to what the trigger needs.
type post struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	Permalink string  `json:"permalink"`
	Ups       float64 `json:"ups"`
}

// latestPost fetches the newest submission in a subreddit.
func (s *Service) latestPost(ctx context.Context, token, subreddit string) (*post, error) {
	u := fmt.Sprintf("%s/r/%s/new?limit=1", s.baseURL, url.PathEscape(subreddit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("reddit: building request: %w", err)
	}
	req.Header.Set("Authorization", "bearer "+token)
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit: fetching posts: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit: listing returned status %d", resp.StatusCode)
	}

	var listing struct {
		Data struct {
			Children []struct {
				Data post `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("reddit: decoding listing: %w", err)
	}
	if len(listing.Data.Children) == 0 {
		return nil, nil
	}
	p := listing.Data.Children[0].Data
	return &p, nil
}

// ─── new_post ───────────────────────────────────────────────────────────────

// postState is the last_state payload: the newest submission id seen.
type postState struct {
	LastID string `json:"last_id"`
}

// newPost fires when the newest submission in a subreddit changes.
type newPost struct {
	svc *Service
}

func (a *newPost) Name() string        { return "new_post" }
func (a *newPost) Description() string { return "Fires when a subreddit gets a new post" }

func (a *newPost) Schema() []plugin.ConfigField {
	return []plugin.ConfigField{
		{Name: "subreddit", Type: plugin.FieldString, Required: true,
			Description: "Subreddit name without the r/ prefix"},
	}
}

func (a *newPost) Cron() string { return "*/5 * * * *" }

func (a *newPost) Check(ctx context.Context, req plugin.CheckRequest) (plugin.CheckResult, error) {
	subreddit, ok := plugin.String(req.Config, "subreddit")
	if !ok || subreddit == "" {
		return plugin.CheckResult{}, fmt.Errorf("%w: subreddit", plugin.ErrMissingConfig)
	}

	token, err := a.svc.token(ctx, req.UserID)
	if err != nil {
		return plugin.CheckResult{}, err
	}

	latest, err := a.svc.latestPost(ctx, token, subreddit)
	if err != nil {
		return plugin.CheckResult{}, err
	}
	if latest == nil {
		// Empty subreddit: nothing to snapshot or fire
		return plugin.CheckResult{}, nil
	}

	if !req.State.Seen() {
		return plugin.CheckResult{}, req.State.Set(postState{LastID: latest.ID})
	}

	var prev postState
	if err := req.State.Decode(&prev); err != nil {
		return plugin.CheckResult{}, err
	}
	if prev.LastID == latest.ID {
		return plugin.CheckResult{}, nil
	}
	if err := req.State.Set(postState{LastID: latest.ID}); err != nil {
		return plugin.CheckResult{}, err
	}

	return plugin.CheckResult{
		Fired: true,
		Event: map[string]any{
			"id":        latest.ID,
			"title":     latest.Title,
			"author":    latest.Author,
			"subreddit": subreddit,
			"url":       "https://www.reddit.com" + latest.Permalink,
			"ups":       latest.Ups,
		},
	}, nil
}

// ─── submit_post ────────────────────────────────────────────────────────────

// submitPost submits a self post to a subreddit on the caller's behalf.
type submitPost struct {
	svc *Service
}

func (r *submitPost) Name() string        { return "submit_post" }
func (r *submitPost) Description() string { return "Submit a text post to a subreddit" }

func (r *submitPost) Schema() []plugin.ConfigField {
	return []plugin.ConfigField{
		{Name: "subreddit", Type: plugin.FieldString, Required: true},
		{Name: "title", Type: plugin.FieldString, Required: true},
		{Name: "text", Type: plugin.FieldString, Required: false},
	}
}

func (r *submitPost) Execute(ctx context.Context, req plugin.ExecuteRequest) error {
	subreddit, ok := plugin.String(req.Config, "subreddit")
	if !ok || subreddit == "" {
		return fmt.Errorf("%w: subreddit", plugin.ErrMissingConfig)
	}
	title, ok := plugin.String(req.Config, "title")
	if !ok || title == "" {
		return fmt.Errorf("%w: title", plugin.ErrMissingConfig)
	}
	text, _ := plugin.String(req.Config, "text")

	token, err := r.svc.token(ctx, req.UserID)
	if err != nil {
		return err
	}

	form := url.Values{
		"sr":       {subreddit},
		"kind":     {"self"},
		"title":    {title},
		"text":     {text},
		"api_type": {"json"},
		"resubmit": {"true"},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.svc.baseURL+"/api/submit", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("reddit: building request: %w", err)
	}
	httpReq.Header.Set("Authorization", "bearer "+token)
	httpReq.Header.Set("User-Agent", r.svc.userAgent)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.svc.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("reddit: submitting: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("reddit: submit returned status %d: %s", resp.StatusCode, body)
	}
	return nil
}
