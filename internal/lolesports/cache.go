package lolesports

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// responseCache memoizes GET responses under a short TTL, keyed by the
// full request URL. It exists to absorb the discovery loop and a
// tailing task momentarily racing on the same endpoint; it is never a
// substitute for per-game state, which lives entirely in the highlights
// agent.
type responseCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func (c *responseCache) key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "lolesports:resp:" + hex.EncodeToString(sum[:])
}

func (c *responseCache) get(ctx context.Context, url string) (json.RawMessage, bool) {
	val, err := c.rdb.Get(ctx, c.key(url)).Bytes()
	if err != nil {
		return nil, false
	}
	return json.RawMessage(val), true
}

func (c *responseCache) set(ctx context.Context, url string, body []byte) {
	c.rdb.Set(ctx, c.key(url), body, c.ttl)
}
