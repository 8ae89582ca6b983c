package highlights

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		MultikillWindow:   10 * time.Second,
		ComebackWindow:    30 * time.Second,
		ComebackSwingGold: 5000,
		Cooldowns: CooldownConfig{
			FirstBlood: 24 * time.Hour,
			Multikill:  5 * time.Second,
			Baron:      5 * time.Second,
			Dragon:     5 * time.Second,
			Tower:      5 * time.Second,
			Inhibitor:  5 * time.Second,
			Ace:        5 * time.Second,
			Comeback:   5 * time.Second,
		},
	}
}

func frameWithKills(blue, red int) json.RawMessage {
	b, _ := json.Marshal(map[string]any{
		"blueTeam": map[string]any{"totalKills": blue, "totalGold": 0},
		"redTeam":  map[string]any{"totalKills": red, "totalGold": 0},
	})
	return b
}

// Scenario 5: first blood + double kill, frames at blue kills 0, 1, 2.
func TestDetect_FirstBloodThenDoubleKill(t *testing.T) {
	s := NewGameState("g1", testConfig())
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	h1, err := Detect(s, frameWithKills(0, 0))
	require.NoError(t, err)
	assert.Empty(t, h1)

	clock = clock.Add(time.Second)
	h2, err := Detect(s, frameWithKills(1, 0))
	require.NoError(t, err)
	require.Len(t, h2, 1)
	assert.Equal(t, "first_blood", h2[0].Kind)
	assert.Equal(t, "blue", h2[0].Meta["side"])

	clock = clock.Add(time.Second)
	h3, err := Detect(s, frameWithKills(2, 0))
	require.NoError(t, err)
	require.Len(t, h3, 1)
	assert.Equal(t, "double_kill", h3[0].Kind)
	assert.EqualValues(t, 2, h3[0].Meta["kills_in_window"])

	assert.True(t, s.firstBloodSet)
}

func TestDetect_FirstBloodOneShot(t *testing.T) {
	s := NewGameState("g1", testConfig())
	clock := time.Now()
	s.now = func() time.Time { return clock }

	_, err := Detect(s, frameWithKills(1, 0))
	require.NoError(t, err)
	h, err := Detect(s, frameWithKills(1, 1))
	require.NoError(t, err)
	for _, hl := range h {
		assert.NotEqual(t, "first_blood", hl.Kind)
	}
}

func frameWithGold(blue, red int) json.RawMessage {
	b, _ := json.Marshal(map[string]any{
		"blueTeam": map[string]any{"totalGold": blue, "totalKills": 0},
		"redTeam":  map[string]any{"totalGold": red, "totalKills": 0},
	})
	return b
}

// Scenario 6: gold-diff sequence (-3000), (-500), (+200) at 1s intervals.
func TestDetect_ComebackSwing(t *testing.T) {
	s := NewGameState("g1", testConfig())
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	_, err := Detect(s, frameWithGold(0, 3000)) // diff -3000
	require.NoError(t, err)

	clock = clock.Add(time.Second)
	_, err = Detect(s, frameWithGold(0, 500)) // diff -500
	require.NoError(t, err)

	clock = clock.Add(time.Second)
	h, err := Detect(s, frameWithGold(200, 0)) // diff +200, flips sign vs -3000
	require.NoError(t, err)

	var swings []Highlight
	for _, hl := range h {
		if hl.Kind == "comeback_swing" {
			swings = append(swings, hl)
		}
	}
	require.Len(t, swings, 1)
	assert.EqualValues(t, -3000, swings[0].Meta["from"])
	assert.EqualValues(t, 200, swings[0].Meta["to"])

	clock = clock.Add(time.Second)
	h2, err := Detect(s, frameWithGold(250, 0))
	require.NoError(t, err)
	for _, hl := range h2 {
		assert.NotEqual(t, "comeback_swing", hl.Kind, "must not re-fire within cooldown")
	}
}

func TestDetect_CooldownSuppressesRepeat(t *testing.T) {
	s := NewGameState("g1", testConfig())
	clock := time.Now()
	s.now = func() time.Time { return clock }

	raw := json.RawMessage(`{"blueTeam":{"totalKills":0,"totalGold":0,"barons":1},"redTeam":{"totalKills":0,"totalGold":0,"barons":0}}`)
	h1, err := Detect(s, raw)
	require.NoError(t, err)
	require.NotEmpty(t, findKind(h1, "baron_taken"))

	clock = clock.Add(time.Second)
	raw2 := json.RawMessage(`{"blueTeam":{"totalKills":0,"totalGold":0,"barons":2},"redTeam":{"totalKills":0,"totalGold":0,"barons":0}}`)
	h2, err := Detect(s, raw2)
	require.NoError(t, err)
	assert.Empty(t, findKind(h2, "baron_taken"), "second baron within cooldown must be suppressed")
}

func TestKillBufferMonotonicityAfterPrune(t *testing.T) {
	s := NewGameState("g1", testConfig())
	clock := time.Now()
	s.now = func() time.Time { return clock }

	_, err := Detect(s, frameWithKills(3, 0))
	require.NoError(t, err)

	clock = clock.Add(20 * time.Second) // beyond the 10s multikill window
	_, err = Detect(s, frameWithKills(3, 0))
	require.NoError(t, err)

	cutoff := clock.Add(-s.cfg.MultikillWindow)
	for _, k := range s.killBuffer {
		assert.True(t, k.At.After(cutoff))
	}
}

func findKind(highlights []Highlight, kind string) []Highlight {
	var out []Highlight
	for _, h := range highlights {
		if h.Kind == kind {
			out = append(out, h)
		}
	}
	return out
}
