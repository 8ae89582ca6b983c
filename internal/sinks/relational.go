// Package sinks holds the two durable consumers fanned out to for every
// bus event: a relational store (raw landing + routed upserts) and a
// partitioned log broker.
package sinks

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/herald-lol/esports-ingest/internal/metrics"
	"github.com/herald-lol/esports-ingest/internal/models"
)

const ddl = `
CREATE TABLE IF NOT EXISTS raw_events (
	id BIGSERIAL PRIMARY KEY,
	type TEXT NOT NULL,
	at TIMESTAMPTZ NOT NULL,
	key TEXT NOT NULL,
	source TEXT NOT NULL,
	version TEXT NOT NULL,
	payload JSONB NOT NULL,
	payload_hash BYTEA NOT NULL,
	received_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (type, key, payload_hash)
);

CREATE TABLE IF NOT EXISTS matches (
	match_id BIGINT PRIMARY KEY,
	game TEXT NOT NULL DEFAULT 'lol',
	slug TEXT,
	name TEXT,
	status TEXT,
	live BOOLEAN,
	best_of INT,
	league_id BIGINT,
	league_slug TEXT,
	league TEXT,
	tournament_id BIGINT,
	tournament_slug TEXT,
	tournament TEXT,
	serie_id BIGINT,
	opponent1_id BIGINT,
	opponent1_slug TEXT,
	opponent1 TEXT,
	opponent2_id BIGINT,
	opponent2_slug TEXT,
	opponent2 TEXT,
	scheduled_at TIMESTAMPTZ,
	begin_at TIMESTAMPTZ,
	end_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS results (
	match_id BIGINT PRIMARY KEY,
	winner_id BIGINT,
	forfeit BOOLEAN,
	draw BOOLEAN,
	end_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Relational is the raw-landing + routed-upsert sink. It holds a small
// bounded pool (1-4 connections); every event is handled in one
// transaction.
type Relational struct {
	db *sql.DB
}

func OpenRelational(dsn string) (*Relational, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("relational sink: ping: %w", err)
	}
	return &Relational{db: db}, nil
}

// Init runs the idempotent schema DDL once at startup.
func (r *Relational) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *Relational) Close() error { return r.db.Close() }

// Write performs raw landing plus routed upsert for one envelope inside
// a single transaction. Duplicate raw_events rows (same type/key/hash)
// are silently dropped by ON CONFLICT DO NOTHING.
func (r *Relational) Write(ctx context.Context, e models.Envelope) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.SinkWritesTotal.WithLabelValues("relational", "error").Inc()
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			metrics.SinkWritesTotal.WithLabelValues("relational", "error").Inc()
			return
		}
		err = tx.Commit()
		if err != nil {
			metrics.SinkWritesTotal.WithLabelValues("relational", "error").Inc()
		} else {
			metrics.SinkWritesTotal.WithLabelValues("relational", "ok").Inc()
		}
	}()

	hash := e.PayloadHash()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO raw_events(type, at, key, source, version, payload, payload_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (type, key, payload_hash) DO NOTHING`,
		e.Type, e.At, e.Key, e.Source, e.Version, []byte(e.Payload), hash[:])
	if err != nil {
		return fmt.Errorf("raw landing: %w", err)
	}

	switch {
	case strings.HasSuffix(e.Type, "schedule.upsert") || strings.HasSuffix(e.Type, "match.status"):
		var m models.NormalizedMatch
		if uerr := unmarshalPayload(e, &m); uerr != nil {
			return fmt.Errorf("decode match payload: %w", uerr)
		}
		err = upsertMatch(ctx, tx, m)
	case strings.HasSuffix(e.Type, "result.upsert"):
		var m models.NormalizedMatch
		if uerr := unmarshalPayload(e, &m); uerr != nil {
			return fmt.Errorf("decode result payload: %w", uerr)
		}
		err = upsertResult(ctx, tx, m)
	}
	return err
}

func upsertMatch(ctx context.Context, tx *sql.Tx, m models.NormalizedMatch) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO matches(
			match_id, slug, name, status, live, best_of,
			league_id, league_slug, league,
			tournament_id, tournament_slug, tournament,
			serie_id,
			opponent1_id, opponent1_slug, opponent1,
			opponent2_id, opponent2_slug, opponent2,
			scheduled_at, begin_at, end_at, updated_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,
			$7,$8,$9,
			$10,$11,$12,
			$13,
			$14,$15,$16,
			$17,$18,$19,
			$20,$21,$22, now()
		)
		ON CONFLICT (match_id) DO UPDATE SET
			slug=EXCLUDED.slug, name=EXCLUDED.name, status=EXCLUDED.status,
			live=EXCLUDED.live, best_of=EXCLUDED.best_of,
			league_id=EXCLUDED.league_id, league_slug=EXCLUDED.league_slug, league=EXCLUDED.league,
			tournament_id=EXCLUDED.tournament_id, tournament_slug=EXCLUDED.tournament_slug, tournament=EXCLUDED.tournament,
			serie_id=EXCLUDED.serie_id,
			opponent1_id=EXCLUDED.opponent1_id, opponent1_slug=EXCLUDED.opponent1_slug, opponent1=EXCLUDED.opponent1,
			opponent2_id=EXCLUDED.opponent2_id, opponent2_slug=EXCLUDED.opponent2_slug, opponent2=EXCLUDED.opponent2,
			scheduled_at=EXCLUDED.scheduled_at, begin_at=EXCLUDED.begin_at, end_at=EXCLUDED.end_at,
			updated_at=now()`,
		m.ID, m.Slug, m.Name, m.Status, m.Live, m.BestOf,
		m.LeagueID, m.LeagueSlug, m.League,
		m.TournamentID, m.TournamentSlug, m.Tournament,
		m.SerieID,
		m.Opponent1.ID, m.Opponent1.Slug, m.Opponent1.Name,
		m.Opponent2.ID, m.Opponent2.Slug, m.Opponent2.Name,
		m.ScheduledAt, m.BeginAt, m.EndAt)
	return err
}

func upsertResult(ctx context.Context, tx *sql.Tx, m models.NormalizedMatch) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO matches (match_id, status, end_at, updated_at)
		VALUES ($1,$2,$3, now())
		ON CONFLICT (match_id) DO UPDATE SET
			status=EXCLUDED.status, end_at=EXCLUDED.end_at, updated_at=now()`,
		m.ID, m.Status, m.EndAt); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO results(match_id, winner_id, forfeit, draw, end_at, updated_at)
		VALUES ($1,$2,$3,$4,$5, now())
		ON CONFLICT (match_id) DO UPDATE SET
			winner_id=EXCLUDED.winner_id, forfeit=EXCLUDED.forfeit,
			draw=EXCLUDED.draw, end_at=EXCLUDED.end_at, updated_at=now()`,
		m.ID, m.WinnerID, m.Forfeit, m.Draw, m.EndAt)
	return err
}
