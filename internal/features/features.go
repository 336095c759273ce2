// Package features fetches runtime feature flags from the platform
// collaborator so subsystems can be killed without a deployment.
package features

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Flags is the subset of GET /api/features the realtime core consumes.
type Flags struct {
	TokenGiftEnabled         bool   `json:"tokenGiftEnabled"`
	TokenGiftDisabledMessage string `json:"tokenGiftDisabledMessage"`
}

// Client polls the features endpoint and caches the snapshot for a TTL so a
// burst of gift requests does not hammer the collaborator.
type Client struct {
	url  string
	ttl  time.Duration
	http *http.Client

	mu        sync.Mutex
	cached    Flags
	fetchedAt time.Time
}

// NewClient builds a features client for the given endpoint.
func NewClient(url string, ttl time.Duration) *Client {
	return &Client{
		url:  url,
		ttl:  ttl,
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

// Flags returns the current flag snapshot, refreshing it when the cache is
// older than the TTL. When a refresh fails but a previous snapshot exists,
// the stale snapshot is served; with no snapshot at all the error propagates
// and callers must fail closed. The mutex is never held across the HTTP
// fetch, so a slow collaborator cannot stall other callers reading the
// cache. With Run polling in the background the cache stays warm and this
// path almost never fetches inline.
func (c *Client) Flags(ctx context.Context) (Flags, error) {
	c.mu.Lock()
	if !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.ttl {
		flags := c.cached
		c.mu.Unlock()
		return flags, nil
	}
	c.mu.Unlock()

	flags, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		if !c.fetchedAt.IsZero() {
			return c.cached, nil
		}
		return Flags{}, err
	}
	c.cached = flags
	c.fetchedAt = time.Now()
	return flags, nil
}

// Run refreshes the snapshot at half the TTL until the context is cancelled,
// keeping Flags on the cached fast path.
func (c *Client) Run(ctx context.Context) {
	interval := c.ttl / 2
	if interval <= 0 {
		interval = 15 * time.Second
	}
	c.refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) refresh(ctx context.Context) {
	flags, err := c.fetch(ctx)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.cached = flags
	c.fetchedAt = time.Now()
	c.mu.Unlock()
}

func (c *Client) fetch(ctx context.Context) (Flags, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Flags{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Flags{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Flags{}, fmt.Errorf("features endpoint returned %d", resp.StatusCode)
	}
	var flags Flags
	if err := json.NewDecoder(resp.Body).Decode(&flags); err != nil {
		return Flags{}, err
	}
	return flags, nil
}
