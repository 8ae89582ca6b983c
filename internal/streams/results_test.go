package streams

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-lol/esports-ingest/internal/bus"
	"github.com/herald-lol/esports-ingest/internal/models"
	"github.com/herald-lol/esports-ingest/internal/pandascore"
)

func TestResults_AdvancesCursorAfterNonEmptyTick(t *testing.T) {
	var gotSinceOnSecondCall string
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(`[{"id":7,"status":"finished"}]`))
			return
		}
		gotSinceOnSecondCall = r.URL.Query().Get("range[end_at]")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := pandascore.NewClient(srv.URL, "tok", 1000, 0)
	b := bus.New(10)
	fixedNow := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := &Results{Client: client, Bus: b, PageSize: 50, now: func() time.Time { return fixedNow }}

	r.tick(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	env, ok := b.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, models.TypeResultUpsert, env.Type)

	r.tick(context.Background())
	assert.Contains(t, gotSinceOnSecondCall, "2025-06-01T11:00:00Z")
}
