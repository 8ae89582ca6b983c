package models

import "time"

// Match statuses as returned by the PandaScore-shaped schedule/results API.
const (
	StatusNotStarted = "not_started"
	StatusRunning    = "running"
	StatusFinished   = "finished"
	StatusCanceled   = "canceled"
	StatusPostponed  = "postponed"
)

// RawMatch is the upstream shape returned by /lol/matches/{upcoming,running,past}.
// Only the fields the normalizer reads are typed; everything else is
// tolerated as absent.
type RawMatch struct {
	ID              int64          `json:"id"`
	Slug            string         `json:"slug"`
	Name            string         `json:"name"`
	Status          string         `json:"status"`
	NumberOfGames   int             `json:"number_of_games"`
	BeginAt         *time.Time      `json:"begin_at"`
	ScheduledAt     *time.Time      `json:"scheduled_at"`
	EndAt           *time.Time      `json:"end_at"`
	SerieID         int64           `json:"serie_id"`
	League          *RawLeague      `json:"league"`
	Tournament      *RawTournament  `json:"tournament"`
	Opponents       []RawOpponent   `json:"opponents"`
	WinnerID        *int64          `json:"winner_id"`
	Forfeit         bool            `json:"forfeit"`
	Draw            bool            `json:"draw"`
}

type RawLeague struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type RawTournament struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type RawOpponent struct {
	Opponent *struct {
		ID   int64  `json:"id"`
		Slug string `json:"slug"`
		Name string `json:"name"`
	} `json:"opponent"`
}

// Opponent is one of the two normalized match participants. A nil ID
// (zero value with Name empty) marks an unknown opponent slot.
type Opponent struct {
	ID   *int64 `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// NormalizedMatch is the payload carried by schedule-upsert and
// result-upsert envelopes. It is produced from a RawMatch; its JSON is
// not a RawMatch and is not fed back through normalization.
type NormalizedMatch struct {
	ID             int64      `json:"id"`
	Slug           string     `json:"slug"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	Live           bool       `json:"live"`
	BestOf         int        `json:"best_of"`
	LeagueID       int64      `json:"league_id"`
	LeagueSlug     string     `json:"league_slug"`
	League         string     `json:"league"`
	TournamentID   int64      `json:"tournament_id"`
	TournamentSlug string     `json:"tournament_slug"`
	Tournament     string     `json:"tournament"`
	SerieID        int64      `json:"serie_id"`
	Opponent1      Opponent   `json:"opponent1"`
	Opponent2      Opponent   `json:"opponent2"`
	ScheduledAt    *time.Time `json:"scheduled_at"`
	BeginAt        *time.Time `json:"begin_at"`
	EndAt          *time.Time `json:"end_at"`
	WinnerID       *int64     `json:"winner_id,omitempty"`
	Forfeit        bool       `json:"forfeit,omitempty"`
	Draw           bool       `json:"draw,omitempty"`
}
