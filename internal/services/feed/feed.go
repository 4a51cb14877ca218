// Package feed provides an RSS/Atom new_item trigger. Item identity is
// the guid (RSS) or id (Atom), falling back to the link; the set of seen
// identities lives in last_state and the trigger fires when the feed
// gains members.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/area-labs/area-core/internal/plugin"
)

// maxFeedBytes caps how much of a feed body is read. Feeds past this are
// truncated, which at worst delays items to the next fetch window.
const maxFeedBytes = 4 << 20

// Service is the feed service.
type Service struct {
	client *http.Client
}

// New creates the feed service.
func New() *Service {
	return &Service{client: &http.Client{Timeout: 15 * time.Second}}
}

// NewWithClient creates the service with an injected HTTP client.
func NewWithClient(c *http.Client) *Service {
	return &Service{client: c}
}

func (s *Service) Name() string        { return "feed" }
func (s *Service) Description() string { return "RSS and Atom feed triggers" }
func (s *Service) Category() string    { return "news" }
func (s *Service) Colour() string      { return "#ee802f" }
func (s *Service) RequiresAuth() bool  { return false }

func (s *Service) Actions() []plugin.Action {
	return []plugin.Action{&newItem{svc: s}}
}

func (s *Service) Reactions() []plugin.Reaction { return nil }

// item is one feed entry reduced to what the trigger needs.
type item struct {
	ID    string
	Title string
	Link  string
}

// fetch downloads and parses a feed, RSS 2.0 or Atom.
func (s *Service) fetch(ctx context.Context, feedURL string) ([]item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: building request: %w", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: fetching: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed: fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("feed: reading body: %w", err)
	}
	return parse(body)
}

// rssDoc and atomDoc cover the two wire formats this trigger accepts.
type rssDoc struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []struct {
			GUID  string `xml:"guid"`
			Title string `xml:"title"`
			Link  string `xml:"link"`
		} `xml:"item"`
	} `xml:"channel"`
}

type atomDoc struct {
	XMLName xml.Name `xml:"feed"`
	Entries []struct {
		ID    string `xml:"id"`
		Title string `xml:"title"`
		Links []struct {
			Href string `xml:"href,attr"`
			Rel  string `xml:"rel,attr"`
		} `xml:"link"`
	} `xml:"entry"`
}

func parse(body []byte) ([]item, error) {
	var rss rssDoc
	if err := xml.Unmarshal(body, &rss); err == nil && len(rss.Channel.Items) > 0 {
		items := make([]item, 0, len(rss.Channel.Items))
		for _, it := range rss.Channel.Items {
			id := it.GUID
			if id == "" {
				id = it.Link
			}
			if id == "" {
				continue
			}
			items = append(items, item{ID: id, Title: it.Title, Link: it.Link})
		}
		return items, nil
	}

	var atom atomDoc
	if err := xml.Unmarshal(body, &atom); err == nil && len(atom.Entries) > 0 {
		items := make([]item, 0, len(atom.Entries))
		for _, e := range atom.Entries {
			link := ""
			for _, l := range e.Links {
				if l.Rel == "" || l.Rel == "alternate" {
					link = l.Href
					break
				}
			}
			id := e.ID
			if id == "" {
				id = link
			}
			if id == "" {
				continue
			}
			items = append(items, item{ID: id, Title: e.Title, Link: link})
		}
		return items, nil
	}

	return nil, fmt.Errorf("feed: body is neither RSS nor Atom")
}

// guidState is the last_state payload: every identity seen so far. Kept
// as a list, not just the head item, so feeds that reorder or batch do
// not re-fire old entries.
type guidState struct {
	Seen []string `json:"seen"`
}

// newItem fires when a fetched feed contains identities absent from the
// snapshot.
type newItem struct {
	svc *Service
}

func (a *newItem) Name() string        { return "new_item" }
func (a *newItem) Description() string { return "Fires when a feed publishes a new item" }

func (a *newItem) Schema() []plugin.ConfigField {
	return []plugin.ConfigField{
		{Name: "url", Type: plugin.FieldString, Required: true,
			Description: "RSS or Atom feed URL"},
	}
}

func (a *newItem) Cron() string { return "*/5 * * * *" }

func (a *newItem) Check(ctx context.Context, req plugin.CheckRequest) (plugin.CheckResult, error) {
	feedURL, ok := plugin.String(req.Config, "url")
	if !ok {
		return plugin.CheckResult{}, fmt.Errorf("%w: url", plugin.ErrMissingConfig)
	}

	items, err := a.svc.fetch(ctx, feedURL)
	if err != nil {
		return plugin.CheckResult{}, err
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}

	if !req.State.Seen() {
		return plugin.CheckResult{}, req.State.Set(guidState{Seen: ids})
	}

	var prev guidState
	if err := req.State.Decode(&prev); err != nil {
		return plugin.CheckResult{}, err
	}
	known := make(map[string]bool, len(prev.Seen))
	for _, id := range prev.Seen {
		known[id] = true
	}

	var fresh []item
	for _, it := range items {
		if !known[it.ID] {
			fresh = append(fresh, it)
		}
	}
	if len(fresh) == 0 {
		return plugin.CheckResult{}, nil
	}

	// Keep old identities too: an item dropping off the feed page must
	// not count as new when it reappears
	merged := prev.Seen
	for _, it := range fresh {
		merged = append(merged, it.ID)
	}
	if err := req.State.Set(guidState{Seen: merged}); err != nil {
		return plugin.CheckResult{}, err
	}

	newest := fresh[0]
	return plugin.CheckResult{
		Fired: true,
		Event: map[string]any{
			"title":     newest.Title,
			"link":      newest.Link,
			"guid":      newest.ID,
			"new_count": len(fresh),
			"feed_url":  feedURL,
		},
	}, nil
}
