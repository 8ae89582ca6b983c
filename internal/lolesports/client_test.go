package lolesports

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getLive", r.URL.Path)
		assert.Equal(t, "en-US", r.URL.Query().Get("hl"))
		w.Write([]byte(`{"data":{"schedule":{"events":[]}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, "en-US", "", 0)
	body, err := c.GetLive(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(body), "schedule")
}

func TestWindow_CarriesCursor(t *testing.T) {
	var gotCursor string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/window/g1", r.URL.Path)
		gotCursor = r.URL.Query().Get("startingTime")
		w.Write([]byte(`{"frames":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, "en-US", "", 0)
	_, err := c.Window(context.Background(), "g1", "2025-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01T00:00:00Z", gotCursor)
}

func TestGetEventDetails_SendsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get("x-api-key"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, "en-US", "secret-key", 0)
	_, err := c.GetEventDetails(context.Background(), "123")
	require.NoError(t, err)
}
