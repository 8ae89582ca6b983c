package streams

import (
	"context"
	"log"
	"time"

	"github.com/herald-lol/esports-ingest/internal/bus"
	"github.com/herald-lol/esports-ingest/internal/metrics"
	"github.com/herald-lol/esports-ingest/internal/models"
	"github.com/herald-lol/esports-ingest/internal/normalize"
	"github.com/herald-lol/esports-ingest/internal/pandascore"
)

// Results polls recently finished matches every tick and publishes
// lol.result.upsert envelopes. It maintains a persistent since_iso
// cursor that deliberately overlaps by one hour on every advance;
// idempotent upsert at the relational sink absorbs the repeats.
type Results struct {
	Client   *pandascore.Client
	Bus      *bus.Bus
	Interval time.Duration
	PageSize int

	sinceISO string
	now      func() time.Time
}

func NewResults(client *pandascore.Client, b *bus.Bus, interval time.Duration, pageSize int) *Results {
	return &Results{Client: client, Bus: b, Interval: interval, PageSize: pageSize, now: time.Now}
}

func (r *Results) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		r.tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Results) tick(ctx context.Context) {
	page := 1
	gotAny := false
	for {
		matches, err := r.Client.ListPastMatches(ctx, page, r.PageSize, r.sinceISO)
		if err != nil {
			log.Printf("⚠️ results poll failed: %v", err)
			return
		}
		if len(matches) == 0 {
			break
		}
		gotAny = true
		for _, m := range matches {
			norm := normalize.Match(m)
			env, err := models.NewEnvelope(models.TypeResultUpsert, normalize.Key(norm), norm, "pandascore", "1.0", time.Now().UTC())
			if err != nil {
				log.Printf("⚠️ results: failed to build envelope for match %d: %v", m.ID, err)
				continue
			}
			r.Bus.Publish(env)
			metrics.EventsOutTotal.WithLabelValues(models.TypeResultUpsert).Inc()
		}
		if len(matches) < r.PageSize {
			break
		}
		page++
	}
	if gotAny {
		r.sinceISO = r.now().UTC().Add(-time.Hour).Format(time.RFC3339)
	}
}
