package pandascore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUpcomingMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/matches/upcoming", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":42,"status":"not_started","number_of_games":5,
			"opponents":[{"opponent":{"id":1,"name":"T1"}},{"opponent":{"id":2,"name":"GEN"}}],
			"league":{"name":"LCK"},"tournament":{"name":"Spring"}}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 1000, 0)
	matches, err := c.ListUpcomingMatches(context.Background(), 1, 50)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.EqualValues(t, 42, matches[0].ID)
	assert.Equal(t, "not_started", matches[0].Status)
	assert.Equal(t, "T1", matches[0].Opponents[0].Opponent.Name)
}

func TestGet_4xxIsFatal(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 1000, 0)
	_, err := c.ListRunningMatches(context.Background(), 1, 50)
	require.Error(t, err)
	assert.Equal(t, 1, calls, "4xx must not be retried")
}

func TestGet_5xxRetriesThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 1000, 0)
	matches, err := c.ListPastMatches(context.Background(), 1, 50, "")
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, 3, calls)
}
