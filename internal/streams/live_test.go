package streams

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveGames_FiltersByState(t *testing.T) {
	raw := json.RawMessage(`{
		"data": {"schedule": {"events": [
			{"match": {"id": "m1", "games": [
				{"id": "g1", "state": "inProgress"},
				{"id": "g2", "state": "completed"}
			]}},
			{"match": {"id": "m2", "games": [
				{"id": "g3", "state": "inProgressMedia"}
			]}}
		]}}
	}`)

	games := activeGames(raw)
	var ids []string
	for _, g := range games {
		ids = append(ids, g.GameID)
	}
	assert.ElementsMatch(t, []string{"g1", "g3"}, ids)
}

func TestLastFrameTimestamp_EmptyFrames(t *testing.T) {
	assert.Equal(t, "", lastFrameTimestamp(json.RawMessage(`{"frames":[]}`)))
}

func TestLastFrameTimestamp_TakesLast(t *testing.T) {
	raw := json.RawMessage(`{"frames":[{"rfc460Timestamp":"t1"},{"rfc460Timestamp":"t2"}]}`)
	assert.Equal(t, "t2", lastFrameTimestamp(raw))
}

func TestWithGameMeta_AddsFieldsToObject(t *testing.T) {
	out := withGameMeta(json.RawMessage(`{"frames":[]}`), "g1", matchMeta{League: "LCK", Tournament: "Spring"})
	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "g1", doc["esportsGameId"])
	assert.Equal(t, "LCK", doc["league"])
	assert.Equal(t, "Spring", doc["tournament"])
}

func TestParseEventDetails_MissingFieldsYieldEmpty(t *testing.T) {
	meta := parseEventDetails(json.RawMessage(`{}`))
	assert.Equal(t, matchMeta{}, meta)
}
