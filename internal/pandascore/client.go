// Package pandascore is the client for the quota-bound schedule/results
// provider: paginated match listings behind an hourly token bucket and a
// retry/backoff policy.
package pandascore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/herald-lol/esports-ingest/internal/metrics"
	"github.com/herald-lol/esports-ingest/internal/models"
	"github.com/herald-lol/esports-ingest/internal/ratelimit"
)

// permanentError marks a non-retryable (4xx, non-429) failure. It is
// returned inside backoff.Permanent so that backoff.Retry stops
// immediately instead of burning attempts.
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Client talks to /lol/matches/{upcoming,running,past} and /tournaments.
// Safe for concurrent use; the token bucket and http.Client are shared.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	bucket     *ratelimit.HourlyBucket
}

func NewClient(baseURL, token string, requestsPerHour int, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		bucket:     ratelimit.NewHourlyBucket(requestsPerHour),
	}
}

func (c *Client) withAuth(path string, params url.Values) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("token", c.token)
	return fmt.Sprintf("%s%s?%s", c.baseURL, path, q.Encode())
}

// get issues a rate-limited, retried GET and decodes a JSON array response.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]json.RawMessage, error) {
	if err := c.bucket.Take(ctx); err != nil {
		return nil, err
	}

	label := endpoint
	timer := metrics.NewTimer("pandascore", label)
	metrics.RateLimitRemaining.WithLabelValues("pandascore").Set(float64(c.bucket.Remaining()))

	var result []json.RawMessage
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.withAuth(endpoint, params), nil)
		if err != nil {
			return backoff.Permanent(&permanentError{err})
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			if wait := retryAfter(resp.Header.Get("Retry-After")); wait > 0 {
				time.Sleep(wait)
			}
			return fmt.Errorf("pandascore: 429 from %s", endpoint)
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("pandascore: %d from %s", resp.StatusCode, endpoint)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(&permanentError{fmt.Errorf("pandascore: %d from %s", resp.StatusCode, endpoint)})
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &result)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 10 * time.Second
	bo.Multiplier = 2
	err := backoff.Retry(op, backoff.WithMaxRetries(bo, 4))
	timer.ObserveError(err)
	if err != nil {
		var perm *permanentError
		if ok := asPermanent(err, &perm); ok {
			return nil, perm.err
		}
		return nil, err
	}
	return result, nil
}

func asPermanent(err error, target **permanentError) bool {
	for err != nil {
		if p, ok := err.(*permanentError); ok {
			*target = p
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

func retryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func decodeMatches(raw []json.RawMessage) ([]models.RawMatch, error) {
	out := make([]models.RawMatch, 0, len(raw))
	for _, r := range raw {
		var m models.RawMatch
		if err := json.Unmarshal(r, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (c *Client) ListUpcomingMatches(ctx context.Context, page, perPage int) ([]models.RawMatch, error) {
	params := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
		"sort":     {"begin_at"},
	}
	raw, err := c.get(ctx, "/matches/upcoming", params)
	if err != nil {
		return nil, err
	}
	return decodeMatches(raw)
}

func (c *Client) ListRunningMatches(ctx context.Context, page, perPage int) ([]models.RawMatch, error) {
	params := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
		"sort":     {"begin_at"},
	}
	raw, err := c.get(ctx, "/matches/running", params)
	if err != nil {
		return nil, err
	}
	return decodeMatches(raw)
}

// ListPastMatches returns finished matches, optionally bounded below by
// sinceISO (exclusive lower bound on end_at, open-ended upper bound).
func (c *Client) ListPastMatches(ctx context.Context, page, perPage int, sinceISO string) ([]models.RawMatch, error) {
	params := url.Values{
		"page":            {strconv.Itoa(page)},
		"per_page":        {strconv.Itoa(perPage)},
		"sort":            {"-end_at"},
		"filter[status]":  {"finished"},
	}
	if sinceISO != "" {
		params.Set("range[end_at]", sinceISO+",")
	}
	raw, err := c.get(ctx, "/matches/past", params)
	if err != nil {
		return nil, err
	}
	return decodeMatches(raw)
}

func (c *Client) GetTournaments(ctx context.Context, page, perPage int, whitelist []string) ([]json.RawMessage, error) {
	params := url.Values{
		"page":              {strconv.Itoa(page)},
		"per_page":          {strconv.Itoa(perPage)},
		"sort":              {"-begin_at"},
		"filter[videogame]": {"lol"},
	}
	if len(whitelist) > 0 {
		params["filter[slug]"] = whitelist
	}
	return c.get(ctx, "/tournaments", params)
}
