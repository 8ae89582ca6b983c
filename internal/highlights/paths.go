// Package highlights is the stateful per-game detector: it consumes
// live-window frames, maintains cooldowns and sliding buffers per game,
// and emits highlight envelopes.
package highlights

import (
	"encoding/json"
	"strconv"
)

// fieldPaths lists, per logical field, the ordered candidate JSON paths
// to try against a window frame. The upstream schema has minor variants
// across providers and over time; the first non-null candidate wins.
var fieldPaths = map[string][]string{
	"game_state": {"gameState", "gameMetadata.gameState"},
	"timestamp":  {"rfc460Timestamp", "gameMetadata.ESportsGameId"},
	"blue_name":  {"blueTeam.name", "gameMetadata.blueTeamName"},
	"red_name":   {"redTeam.name", "gameMetadata.redTeamName"},

	"blue_kills": {"blueTeam.totalKills", "blueTeam.kills", "blueTeam.score.kills"},
	"red_kills":  {"redTeam.totalKills", "redTeam.kills", "redTeam.score.kills"},

	"blue_gold": {"blueTeam.totalGold", "blueTeam.gold.total", "blueTeam.score.gold"},
	"red_gold":  {"redTeam.totalGold", "redTeam.gold.total", "redTeam.score.gold"},

	"blue_barons": {"blueTeam.barons", "blueTeam.objectives.baron", "blueTeam.score.barons"},
	"red_barons":  {"redTeam.barons", "redTeam.objectives.baron", "redTeam.score.barons"},

	"blue_dragons": {"blueTeam.dragons", "blueTeam.objectives.dragon.total", "blueTeam.score.dragons"},
	"red_dragons":  {"redTeam.dragons", "redTeam.objectives.dragon.total", "redTeam.score.dragons"},

	"blue_towers": {"blueTeam.towers", "blueTeam.objectives.tower", "blueTeam.score.towers"},
	"red_towers":  {"redTeam.towers", "redTeam.objectives.tower", "redTeam.score.towers"},

	"blue_inhibs": {"blueTeam.inhibitors", "blueTeam.objectives.inhibitor", "blueTeam.score.inhibitors"},
	"red_inhibs":  {"redTeam.inhibitors", "redTeam.objectives.inhibitor", "redTeam.score.inhibitors"},
}

// walk resolves a dotted path against a decoded JSON value, returning
// (value, true) only if every segment along the way is an object key
// that's actually present.
func walk(frame map[string]any, path string) (any, bool) {
	var cur any = frame
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			seg := path[start:i]
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			v, ok := obj[seg]
			if !ok {
				return nil, false
			}
			cur = v
			start = i + 1
		}
	}
	return cur, true
}

// pick returns the first non-null value among a field's candidate paths.
func pick(frame map[string]any, field string) (any, bool) {
	for _, p := range fieldPaths[field] {
		if v, ok := walk(frame, p); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// pickString returns a string field, falling back to a default.
func pickString(frame map[string]any, field, def string) string {
	v, ok := pick(frame, field)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

// pickInt coerces a field to an int; missing or non-coercible values
// yield 0, matching the tolerant-decode invariant for schema drift.
func pickInt(frame map[string]any, field string) int {
	v, ok := pick(frame, field)
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return int(i)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func decodeFrame(raw json.RawMessage) (map[string]any, error) {
	var frame map[string]any
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, err
	}
	return frame, nil
}
