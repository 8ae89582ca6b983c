package streams

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-lol/esports-ingest/internal/bus"
	"github.com/herald-lol/esports-ingest/internal/models"
)

func TestSchedule_PublishesNormalizedMatch(t *testing.T) {
	b := bus.New(10)
	s := &Schedule{Bus: b, PageSize: 50}

	fetchUpcoming := func(ctx context.Context, page, perPage int) ([]models.RawMatch, error) {
		if page > 1 {
			return nil, nil
		}
		numGames := 5
		return []models.RawMatch{{
			ID:            42,
			Status:        models.StatusNotStarted,
			NumberOfGames: numGames,
			League:        &models.RawLeague{Name: "LCK"},
			Tournament:    &models.RawTournament{Name: "Spring"},
			Opponents: []models.RawOpponent{
				{Opponent: &struct {
					ID   int64  `json:"id"`
					Slug string `json:"slug"`
					Name string `json:"name"`
				}{Name: "T1"}},
				{Opponent: &struct {
					ID   int64  `json:"id"`
					Slug string `json:"slug"`
					Name string `json:"name"`
				}{Name: "GEN"}},
			},
		}}, nil
	}
	fetchRunning := func(ctx context.Context, page, perPage int) ([]models.RawMatch, error) {
		return nil, nil
	}

	seen := make(map[int64]bool)
	require.NoError(t, s.drain(context.Background(), fetchUpcoming, seen))
	require.NoError(t, s.drain(context.Background(), fetchRunning, seen))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	env, ok := b.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, models.TypeScheduleUpsert, env.Type)
	assert.Equal(t, "match:42", env.Key)

	var m models.NormalizedMatch
	require.NoError(t, json.Unmarshal(env.Payload, &m))
	assert.False(t, m.Live)
	assert.Equal(t, 5, m.BestOf)
	assert.Equal(t, "T1", m.Opponent1.Name)
	assert.Equal(t, "GEN", m.Opponent2.Name)
}

func TestSchedule_DedupsAcrossUpcomingAndRunning(t *testing.T) {
	b := bus.New(10)
	s := &Schedule{Bus: b, PageSize: 50}

	one := func(status string) pageFetcher {
		return func(ctx context.Context, page, perPage int) ([]models.RawMatch, error) {
			if page > 1 {
				return nil, nil
			}
			return []models.RawMatch{{ID: 1, Status: status}}, nil
		}
	}

	seen := make(map[int64]bool)
	require.NoError(t, s.drain(context.Background(), one(models.StatusNotStarted), seen))
	require.NoError(t, s.drain(context.Background(), one(models.StatusRunning), seen))

	ctx1, cancel1 := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel1()
	_, ok := b.Next(ctx1)
	require.True(t, ok)

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel2()
	_, ok = b.Next(ctx2)
	assert.False(t, ok, "second publish must not occur")
}
