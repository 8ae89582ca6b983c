package streams

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/herald-lol/esports-ingest/internal/bus"
	"github.com/herald-lol/esports-ingest/internal/lolesports"
	"github.com/herald-lol/esports-ingest/internal/metrics"
	"github.com/herald-lol/esports-ingest/internal/models"
)

const (
	gameStateInProgress      = "inProgress"
	gameStateInProgressMedia = "inProgressMedia"
)

// Live discovers active games via getLive and supervises one tailing
// task per active game, starting newly-live games and letting ended
// ones exit naturally by removing them from the active set.
type Live struct {
	Client           *lolesports.Client
	Bus              *bus.Bus
	DiscoverInterval time.Duration
	WindowInterval   time.Duration
	DetailsInterval  time.Duration

	mu        sync.Mutex
	active    map[string]context.CancelFunc
	gameMatch map[string]string    // gameId -> parent matchId
	matchMeta map[string]matchMeta // matchId -> cached league/tournament names
}

type matchMeta struct {
	League     string
	Tournament string
}

func NewLive(client *lolesports.Client, b *bus.Bus, discoverInterval, windowInterval, detailsInterval time.Duration) *Live {
	return &Live{
		Client:           client,
		Bus:              b,
		DiscoverInterval: discoverInterval,
		WindowInterval:   windowInterval,
		DetailsInterval:  detailsInterval,
		active:           make(map[string]context.CancelFunc),
		gameMatch:        make(map[string]string),
		matchMeta:        make(map[string]matchMeta),
	}
}

func (l *Live) Run(ctx context.Context) {
	ticker := time.NewTicker(l.DiscoverInterval)
	defer ticker.Stop()
	for {
		l.discover(ctx)
		select {
		case <-ctx.Done():
			l.cancelAll()
			return
		case <-ticker.C:
		}
	}
}

func (l *Live) discover(ctx context.Context) {
	raw, err := l.Client.GetLive(ctx)
	if err != nil {
		log.Printf("⚠️ discover live failed: %v", err)
		return
	}

	liveGames := activeGames(raw)

	l.mu.Lock()
	defer l.mu.Unlock()

	newSet := make(map[string]bool, len(liveGames))
	for _, g := range liveGames {
		newSet[g.GameID] = true
		l.gameMatch[g.GameID] = g.MatchID

		if _, ok := l.matchMeta[g.MatchID]; !ok && g.MatchID != "" {
			l.matchMeta[g.MatchID] = matchMeta{} // placeholder, enriched below outside the lock
			go l.enrichMatchMeta(ctx, g.MatchID)
		}

		if _, ok := l.active[g.GameID]; !ok {
			gctx, cancel := context.WithCancel(ctx)
			l.active[g.GameID] = cancel
			go l.tailGame(gctx, g.GameID)
			log.Printf("▶️  start tailing live game %s", g.GameID)
		}
	}
	for id, cancel := range l.active {
		if !newSet[id] {
			cancel()
			delete(l.active, id)
			log.Printf("⏹  mark game ended %s", id)
		}
	}
}

// enrichMatchMeta fetches league/tournament display names for a newly
// seen match id, once, and caches them for the tailing task to attach
// to subsequent window/details envelopes.
func (l *Live) enrichMatchMeta(ctx context.Context, matchID string) {
	raw, err := l.Client.GetEventDetails(ctx, matchID)
	if err != nil {
		log.Printf("ℹ️ getEventDetails[%s] err: %v", matchID, err)
		return
	}
	meta := parseEventDetails(raw)

	l.mu.Lock()
	l.matchMeta[matchID] = meta
	l.mu.Unlock()
}

func (l *Live) cancelAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, cancel := range l.active {
		cancel()
		delete(l.active, id)
	}
}

// tailGame polls window at WindowInterval and details at DetailsInterval
// (gated by an explicit last-poll timestamp rather than a modular clock
// check, which is fragile under scheduler jitter). It exits when ctx is
// canceled, i.e. when the game leaves the active set.
func (l *Live) tailGame(ctx context.Context, gameID string) {
	var cursor string
	var lastDetailsAt time.Time

	ticker := time.NewTicker(l.WindowInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		win, err := l.Client.Window(ctx, gameID, cursor)
		if err != nil {
			log.Printf("⚠️ window[%s] err: %v", gameID, err)
		} else {
			l.publish(models.TypeLiveWindow, gameID, win)
			if ts := lastFrameTimestamp(win); ts != "" {
				cursor = ts
			}
		}

		if time.Since(lastDetailsAt) >= l.DetailsInterval {
			det, err := l.Client.Details(ctx, gameID, cursor, "")
			if err != nil {
				log.Printf("ℹ️ details[%s] err: %v", gameID, err)
			} else {
				l.publish(models.TypeLiveDetails, gameID, det)
			}
			lastDetailsAt = time.Now()
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// publish wraps the provider's opaque frame payload with the game id and
// any cached league/tournament display names before putting it on the
// bus; the wrapped object stays opaque JSON to every downstream consumer
// except the fields it now carries as siblings of the provider's own.
func (l *Live) publish(evType, gameID string, payload json.RawMessage) {
	l.mu.Lock()
	matchID := l.gameMatch[gameID]
	meta := l.matchMeta[matchID]
	l.mu.Unlock()

	wrapped := withGameMeta(payload, gameID, meta)

	env := models.Envelope{
		Type:    evType,
		At:      time.Now().UTC(),
		Key:     "lolesports:game:" + gameID,
		Payload: wrapped,
		Source:  "lolesports",
		Version: "1.0",
	}
	l.Bus.Publish(env)
	metrics.EventsOutTotal.WithLabelValues(evType).Inc()
}

type liveGame struct {
	GameID  string
	MatchID string
}

// activeGames walks data.schedule.events[].match.games[] and returns the
// games whose state is inProgress or inProgressMedia, alongside their
// parent match id.
func activeGames(raw json.RawMessage) []liveGame {
	var doc struct {
		Data struct {
			Schedule struct {
				Events []struct {
					Match struct {
						ID    string `json:"id"`
						Games []struct {
							ID    string `json:"id"`
							State string `json:"state"`
						} `json:"games"`
					} `json:"match"`
				} `json:"events"`
			} `json:"schedule"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	var games []liveGame
	for _, ev := range doc.Data.Schedule.Events {
		for _, g := range ev.Match.Games {
			if g.ID == "" {
				continue
			}
			if g.State == gameStateInProgress || g.State == gameStateInProgressMedia {
				games = append(games, liveGame{GameID: g.ID, MatchID: ev.Match.ID})
			}
		}
	}
	return games
}

// parseEventDetails extracts league/tournament display names from a
// getEventDetails response. Schema is tolerant: missing fields yield
// an empty matchMeta rather than an error.
func parseEventDetails(raw json.RawMessage) matchMeta {
	var doc struct {
		Data struct {
			Event struct {
				League struct {
					Name string `json:"name"`
				} `json:"league"`
				Tournament struct {
					Name string `json:"name"`
				} `json:"tournament"`
			} `json:"event"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return matchMeta{}
	}
	return matchMeta{League: doc.Data.Event.League.Name, Tournament: doc.Data.Event.Tournament.Name}
}

// withGameMeta merges esportsGameId and, when known, league/tournament
// names into the provider's raw frame object. If the payload isn't a
// JSON object (unexpected provider shape), it's passed through as-is.
func withGameMeta(payload json.RawMessage, gameID string, meta matchMeta) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return payload
	}
	fields["esportsGameId"], _ = json.Marshal(gameID)
	if meta.League != "" {
		fields["league"], _ = json.Marshal(meta.League)
	}
	if meta.Tournament != "" {
		fields["tournament"], _ = json.Marshal(meta.Tournament)
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return payload
	}
	return out
}

func lastFrameTimestamp(raw json.RawMessage) string {
	var doc struct {
		Frames []struct {
			RFC460Timestamp string `json:"rfc460Timestamp"`
		} `json:"frames"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil || len(doc.Frames) == 0 {
		return ""
	}
	return doc.Frames[len(doc.Frames)-1].RFC460Timestamp
}
