// Package lolesports is the client for the live-telemetry provider: no
// quota, plain HTTPS GETs against a gateway (getLive/getEventDetails) and
// a feed (window/details per game), optionally cached in Redis for a few
// seconds to absorb duplicate polls from overlapping tailers.
package lolesports

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/herald-lol/esports-ingest/internal/metrics"
)

// Client wraps the gateway and feed base URLs behind typed calls. The
// gateway requires an x-api-key header when one is configured; the feed
// is unauthenticated.
type Client struct {
	gwBase     string
	feedBase   string
	locale     string
	apiKey     string
	httpClient *http.Client
	cache      *responseCache
}

func NewClient(gwBase, feedBase, locale, apiKey string, timeout time.Duration) *Client {
	return &Client{
		gwBase:     gwBase,
		feedBase:   feedBase,
		locale:     locale,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithCache attaches an optional short-TTL Redis response cache. Safe to
// call with a nil client to leave caching disabled.
func (c *Client) WithCache(rdb *redis.Client, ttl time.Duration) *Client {
	if rdb != nil {
		c.cache = &responseCache{rdb: rdb, ttl: ttl}
	}
	return c
}

func (c *Client) do(ctx context.Context, fullURL, label string) (json.RawMessage, error) {
	if c.cache != nil {
		if hit, ok := c.cache.get(ctx, fullURL); ok {
			return hit, nil
		}
	}

	timer := metrics.NewTimer("lolesports", label)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		timer.ObserveError(err)
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		timer.ObserveError(err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		timer.ObserveError(err)
		return nil, err
	}
	if resp.StatusCode >= 400 {
		err = fmt.Errorf("lolesports: %d from %s", resp.StatusCode, label)
		timer.ObserveError(err)
		return nil, err
	}
	timer.ObserveError(nil)

	if c.cache != nil {
		c.cache.set(ctx, fullURL, body)
	}
	return body, nil
}

// GetLive returns the raw getLive payload: active events/matches/games.
func (c *Client) GetLive(ctx context.Context) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/getLive?%s", c.gwBase, url.Values{"hl": {c.locale}}.Encode())
	return c.do(ctx, u, "getLive")
}

// GetEventDetails returns league/tournament metadata for a match id.
func (c *Client) GetEventDetails(ctx context.Context, matchID string) (json.RawMessage, error) {
	q := url.Values{"hl": {c.locale}, "id": {matchID}}
	u := fmt.Sprintf("%s/getEventDetails?%s", c.gwBase, q.Encode())
	return c.do(ctx, u, "getEventDetails")
}

// Window fetches the next window frame batch for a game, starting from
// the given cursor (empty for "from the beginning").
func (c *Client) Window(ctx context.Context, gameID, startingTime string) (json.RawMessage, error) {
	q := url.Values{}
	if startingTime != "" {
		q.Set("startingTime", startingTime)
	}
	u := fmt.Sprintf("%s/window/%s", c.feedBase, gameID)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return c.do(ctx, u, "window")
}

// Details fetches per-participant detail frames for a game.
func (c *Client) Details(ctx context.Context, gameID, startingTime, participantIDs string) (json.RawMessage, error) {
	q := url.Values{}
	if startingTime != "" {
		q.Set("startingTime", startingTime)
	}
	if participantIDs != "" {
		q.Set("participantIds", participantIDs)
	}
	u := fmt.Sprintf("%s/details/%s", c.feedBase, gameID)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return c.do(ctx, u, "details")
}
