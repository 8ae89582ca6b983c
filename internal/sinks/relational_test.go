package sinks

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/herald-lol/esports-ingest/internal/models"
)

func TestWrite_ScheduleUpsertRoutesToMatches(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := &Relational{db: db}

	payload := models.NormalizedMatch{ID: 42, Slug: "t1-vs-gen", Status: models.StatusNotStarted}
	env, err := models.NewEnvelope(models.TypeScheduleUpsert, "match:42", payload, "pandascore", "1.0", time.Now().UTC())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO raw_events").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO matches").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, r.Write(context.Background(), env))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWrite_ResultUpsertRoutesToMatchesAndResults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := &Relational{db: db}

	payload := models.NormalizedMatch{ID: 7, Status: models.StatusFinished}
	env, err := models.NewEnvelope(models.TypeResultUpsert, "match:7", payload, "pandascore", "1.0", time.Now().UTC())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO raw_events").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO matches").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO results").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, r.Write(context.Background(), env))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWrite_LiveFrameOnlyLandsInRawEvents(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := &Relational{db: db}

	env, err := models.NewEnvelope(models.TypeLiveWindow, "lolesports:game:1", map[string]any{"frames": []any{}}, "lolesports", "1.0", time.Now().UTC())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO raw_events").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, r.Write(context.Background(), env))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWrite_RawLandingErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := &Relational{db: db}
	env, err := models.NewEnvelope(models.TypeLiveWindow, "k", map[string]any{}, "lolesports", "1.0", time.Now().UTC())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO raw_events").WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	require.Error(t, r.Write(context.Background(), env))
	require.NoError(t, mock.ExpectationsWereMet())
}
