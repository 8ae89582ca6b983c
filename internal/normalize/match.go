// Package normalize turns upstream PandaScore match payloads into the
// compact, idempotent NormalizedMatch shape carried on the bus.
package normalize

import (
	"fmt"

	"github.com/herald-lol/esports-ingest/internal/models"
)

// Match normalizes a raw upstream match. It reads only the upstream
// RawMatch shape: the JSON of a NormalizedMatch does not decode back into
// a RawMatch (league and tournament are plain strings there, and best_of
// and opponent1/opponent2 have no RawMatch counterpart), so Match cannot
// be applied to its own output.
func Match(m models.RawMatch) models.NormalizedMatch {
	out := models.NormalizedMatch{
		ID:          m.ID,
		Slug:        m.Slug,
		Name:        m.Name,
		Status:      m.Status,
		Live:        m.Status == models.StatusRunning,
		BestOf:      m.NumberOfGames,
		SerieID:     m.SerieID,
		ScheduledAt: m.ScheduledAt,
		BeginAt:     m.BeginAt,
		EndAt:       m.EndAt,
		WinnerID:    m.WinnerID,
		Forfeit:     m.Forfeit,
		Draw:        m.Draw,
	}
	if m.League != nil {
		out.LeagueID = m.League.ID
		out.LeagueSlug = m.League.Slug
		out.League = m.League.Name
	}
	if m.Tournament != nil {
		out.TournamentID = m.Tournament.ID
		out.TournamentSlug = m.Tournament.Slug
		out.Tournament = m.Tournament.Name
	}
	out.Opponent1 = opponentAt(m.Opponents, 0)
	out.Opponent2 = opponentAt(m.Opponents, 1)
	return out
}

func opponentAt(opponents []models.RawOpponent, i int) models.Opponent {
	if i >= len(opponents) || opponents[i].Opponent == nil {
		return models.Opponent{}
	}
	o := opponents[i].Opponent
	id := o.ID
	return models.Opponent{ID: &id, Slug: o.Slug, Name: o.Name}
}

// Key returns the idempotency/partitioning key for a normalized match.
func Key(m models.NormalizedMatch) string {
	return fmt.Sprintf("match:%d", m.ID)
}
