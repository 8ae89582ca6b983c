// Package streams holds the long-running producers that poll upstream
// clients and publish normalized envelopes onto the bus: schedule,
// results, and the live discovery/tailing supervisor.
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

// Schedule polls upcoming and running matches every tick and publishes
// lol.schedule.upsert envelopes, de-duplicating within the tick so a
// match straddling the upcoming/running boundary is published once.
type Schedule struct {
	Client           *pandascore.Client
	Bus              *bus.Bus
	Interval         time.Duration
	PageSize         int
	LeaguesWhitelist map[string]bool
}

func NewSchedule(client *pandascore.Client, b *bus.Bus, interval time.Duration, pageSize int, leaguesWhitelist []string) *Schedule {
	var wl map[string]bool
	if len(leaguesWhitelist) > 0 {
		wl = make(map[string]bool, len(leaguesWhitelist))
		for _, l := range leaguesWhitelist {
			wl[l] = true
		}
	}
	return &Schedule{Client: client, Bus: b, Interval: interval, PageSize: pageSize, LeaguesWhitelist: wl}
}

func (s *Schedule) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Schedule) tick(ctx context.Context) {
	seen := make(map[int64]bool)
	if err := s.drain(ctx, s.Client.ListUpcomingMatches, seen); err != nil {
		log.Printf("⚠️ schedule poll (upcoming) failed: %v", err)
		return
	}
	if err := s.drain(ctx, s.Client.ListRunningMatches, seen); err != nil {
		log.Printf("⚠️ schedule poll (running) failed: %v", err)
	}
}

type pageFetcher func(ctx context.Context, page, perPage int) ([]models.RawMatch, error)

func (s *Schedule) drain(ctx context.Context, fetch pageFetcher, seen map[int64]bool) error {
	page := 1
	for {
		matches, err := fetch(ctx, page, s.PageSize)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return nil
		}
		for _, m := range matches {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true

			if s.LeaguesWhitelist != nil {
				slug := ""
				if m.League != nil {
					slug = m.League.Slug
				}
				if !s.LeaguesWhitelist[slug] {
					continue
				}
			}

			norm := normalize.Match(m)
			env, err := models.NewEnvelope(models.TypeScheduleUpsert, normalize.Key(norm), norm, "pandascore", "1.0", time.Now().UTC())
			if err != nil {
				log.Printf("⚠️ schedule: failed to build envelope for match %d: %v", m.ID, err)
				continue
			}
			s.Bus.Publish(env)
			metrics.EventsOutTotal.WithLabelValues(models.TypeScheduleUpsert).Inc()
		}
		if len(matches) < s.PageSize {
			return nil
		}
		page++
	}
}
