package highlights

import "time"

// Config holds the tunables for cooldowns and sliding-window widths,
// loaded once and shared read-only across every game's state.
type Config struct {
	MultikillWindow   time.Duration
	ComebackWindow    time.Duration
	ComebackSwingGold int
	Cooldowns         CooldownConfig
}

type CooldownConfig struct {
	FirstBlood time.Duration
	Multikill  time.Duration
	Baron      time.Duration
	Dragon     time.Duration
	Tower      time.Duration
	Inhibitor  time.Duration
	Ace        time.Duration
	Comeback   time.Duration
}

// counters is the six integer aggregates tracked for one side.
type counters struct {
	Kills   int
	Gold    int
	Barons  int
	Dragons int
	Towers  int
	Inhibs  int
}

type killEvent struct {
	At   time.Time
	Side string
}

type goldPoint struct {
	At   time.Time
	Diff int
}

// GameState is the highlights agent's per-game memory, created on first
// sight of a game id and never shared across goroutines: the consumer
// loop processes one frame at a time per game, so no locking is needed
// here.
type GameState struct {
	GameID string
	cfg    Config

	lastTimestamp string
	teamNames     map[string]string
	snapshot      map[string]counters

	cooldownUntil map[string]time.Time
	firstBloodSet bool

	killBuffer []killEvent
	goldWindow []goldPoint

	now func() time.Time
}

func NewGameState(gameID string, cfg Config) *GameState {
	return &GameState{
		GameID:        gameID,
		cfg:           cfg,
		teamNames:     map[string]string{"blue": "Blue", "red": "Red"},
		snapshot:      map[string]counters{"blue": {}, "red": {}},
		cooldownUntil: make(map[string]time.Time),
		now:           time.Now,
	}
}

func (s *GameState) onCooldown(key string) bool {
	until, ok := s.cooldownUntil[key]
	return ok && s.now().Before(until)
}

func (s *GameState) armCooldown(key string, d time.Duration) {
	s.cooldownUntil[key] = s.now().Add(d)
}

// pruneKillBuffer drops entries older than MultikillWindow. The
// invariant this maintains: after pruning, every remaining entry's
// timestamp lies in (now - window, now].
func (s *GameState) pruneKillBuffer() {
	cutoff := s.now().Add(-s.cfg.MultikillWindow)
	kept := s.killBuffer[:0]
	for _, k := range s.killBuffer {
		if k.At.After(cutoff) {
			kept = append(kept, k)
		}
	}
	s.killBuffer = kept
}

func (s *GameState) pruneGoldWindow() {
	cutoff := s.now().Add(-s.cfg.ComebackWindow)
	kept := s.goldWindow[:0]
	for _, g := range s.goldWindow {
		if g.At.After(cutoff) {
			kept = append(kept, g)
		}
	}
	s.goldWindow = kept
}
