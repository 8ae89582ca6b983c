package highlights

import (
	"encoding/json"
	"time"
)

// Highlight is one detected event, ready to be wrapped in an envelope.
type Highlight struct {
	GameID string         `json:"game_id"`
	Kind   string         `json:"kind"`
	At     time.Time      `json:"at"`
	Teams  map[string]string `json:"teams"`
	Meta   map[string]any `json:"meta"`
}

var multikillNames = map[int]string{
	2: "double_kill",
	3: "triple_kill",
	4: "quadra_kill",
	5: "penta_kill",
}

// Detect ingests one frame, updates s in place, and returns every
// highlight that fired. Delta is always current-minus-last-snapshot;
// cooldowns gate re-emission per the detector table.
func Detect(s *GameState, raw json.RawMessage) ([]Highlight, error) {
	frame, err := decodeFrame(raw)
	if err != nil {
		return nil, err
	}

	s.teamNames["blue"] = pickString(frame, "blue_name", "Blue")
	s.teamNames["red"] = pickString(frame, "red_name", "Red")

	cur := map[string]counters{
		"blue": {
			Kills:   pickInt(frame, "blue_kills"),
			Gold:    pickInt(frame, "blue_gold"),
			Barons:  pickInt(frame, "blue_barons"),
			Dragons: pickInt(frame, "blue_dragons"),
			Towers:  pickInt(frame, "blue_towers"),
			Inhibs:  pickInt(frame, "blue_inhibs"),
		},
		"red": {
			Kills:   pickInt(frame, "red_kills"),
			Gold:    pickInt(frame, "red_gold"),
			Barons:  pickInt(frame, "red_barons"),
			Dragons: pickInt(frame, "red_dragons"),
			Towers:  pickInt(frame, "red_towers"),
			Inhibs:  pickInt(frame, "red_inhibs"),
		},
	}

	var out []Highlight
	emit := func(kind string, meta map[string]any) {
		out = append(out, Highlight{
			GameID: s.GameID,
			Kind:   kind,
			At:     s.now(),
			Teams:  map[string]string{"blue": s.teamNames["blue"], "red": s.teamNames["red"]},
			Meta:   meta,
		})
	}

	detectFirstBlood(s, cur, emit)
	detectMultikills(s, cur, emit)
	detectObjectives(s, cur, emit)
	detectAce(s, cur, emit)
	detectComeback(s, cur, emit)

	ts, _ := pick(frame, "timestamp")
	if str, ok := ts.(string); ok {
		s.lastTimestamp = str
	}
	s.snapshot = cur

	return out, nil
}

func detectFirstBlood(s *GameState, cur map[string]counters, emit func(string, map[string]any)) {
	if s.firstBloodSet {
		return
	}
	if cur["blue"].Kills+cur["red"].Kills < 1 {
		return
	}
	side := "red"
	if cur["blue"].Kills > 0 {
		side = "blue"
	}
	emit("first_blood", map[string]any{"side": side, "team": s.teamNames[side]})
	s.firstBloodSet = true
	s.armCooldown("first_blood", s.cfg.Cooldowns.FirstBlood)
}

// detectMultikills appends this poll's kill deltas to the sliding
// buffer, prunes it, then fires a banded multi-kill per side at most
// once per cooldown.
func detectMultikills(s *GameState, cur map[string]counters, emit func(string, map[string]any)) {
	now := s.now()
	for _, side := range []string{"blue", "red"} {
		delta := cur[side].Kills - s.snapshot[side].Kills
		for i := 0; i < delta; i++ {
			s.killBuffer = append(s.killBuffer, killEvent{At: now, Side: side})
		}
	}
	s.pruneKillBuffer()

	for _, side := range []string{"blue", "red"} {
		count := 0
		for _, k := range s.killBuffer {
			if k.Side == side {
				count++
			}
		}
		if count < 2 {
			continue
		}
		cdKey := "multikill_" + side
		if s.onCooldown(cdKey) {
			continue
		}
		band := count
		if band > 5 {
			band = 5
		}
		kind, ok := multikillNames[band]
		if !ok {
			kind = "multi_kill"
		}
		emit(kind, map[string]any{"side": side, "team": s.teamNames[side], "kills_in_window": count})
		s.armCooldown(cdKey, s.cfg.Cooldowns.Multikill)
	}
}

func detectObjectives(s *GameState, cur map[string]counters, emit func(string, map[string]any)) {
	diffAndEmit := func(get func(counters) int, kind, cdKey string, cd time.Duration) {
		for _, side := range []string{"blue", "red"} {
			delta := get(cur[side]) - get(s.snapshot[side])
			key := cdKey + "_" + side
			if delta > 0 && !s.onCooldown(key) {
				emit(kind, map[string]any{"side": side, "team": s.teamNames[side], "delta": delta})
				s.armCooldown(key, cd)
			}
		}
	}

	diffAndEmit(func(c counters) int { return c.Barons }, "baron_taken", "baron", s.cfg.Cooldowns.Baron)

	for _, side := range []string{"blue", "red"} {
		delta := cur[side].Dragons - s.snapshot[side].Dragons
		key := "dragon_" + side
		if delta > 0 && !s.onCooldown(key) {
			total := cur[side].Dragons
			kind := "dragon_taken"
			if total >= 4 {
				kind = "dragon_soul"
			}
			emit(kind, map[string]any{"side": side, "team": s.teamNames[side], "total_dragons": total})
			s.armCooldown(key, s.cfg.Cooldowns.Dragon)
		}
	}

	diffAndEmit(func(c counters) int { return c.Towers }, "tower_taken", "tower", s.cfg.Cooldowns.Tower)
	diffAndEmit(func(c counters) int { return c.Inhibs }, "inhibitor_taken", "inhibitor", s.cfg.Cooldowns.Inhibitor)
}

// detectAce uses team-total kill deltas across polled snapshots, not
// per-champion kill events; it can miss aces spanning two polls or
// double-fire if the opponent's deaths resurrect before the next poll.
// Preserved as the upstream heuristic, gated by its own cooldown.
func detectAce(s *GameState, cur map[string]counters, emit func(string, map[string]any)) {
	sides := [][2]string{{"blue", "red"}, {"red", "blue"}}
	for _, pair := range sides {
		side, opp := pair[0], pair[1]
		dkSide := cur[side].Kills - s.snapshot[side].Kills
		dkOpp := cur[opp].Kills - s.snapshot[opp].Kills
		key := "ace_" + side
		if dkSide >= 5 && dkOpp == 0 && !s.onCooldown(key) {
			emit("ace", map[string]any{"side": side, "team": s.teamNames[side]})
			s.armCooldown(key, s.cfg.Cooldowns.Ace)
		}
	}
}

func detectComeback(s *GameState, cur map[string]counters, emit func(string, map[string]any)) {
	diff := cur["blue"].Gold - cur["red"].Gold
	now := s.now()
	s.goldWindow = append(s.goldWindow, goldPoint{At: now, Diff: diff})
	s.pruneGoldWindow()

	if len(s.goldWindow) < 2 {
		return
	}
	first := s.goldWindow[0].Diff
	signFlip := (first <= 0 && diff > 0) || (first >= 0 && diff < 0)
	bigSwing := abs(diff-first) >= s.cfg.ComebackSwingGold
	if (signFlip || bigSwing) && !s.onCooldown("comeback") {
		emit("comeback_swing", map[string]any{"from": first, "to": diff})
		s.armCooldown("comeback", s.cfg.Cooldowns.Comeback)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
