package highlights

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/herald-lol/esports-ingest/internal/metrics"
	"github.com/herald-lol/esports-ingest/internal/models"
	"github.com/herald-lol/esports-ingest/internal/sinks"
)

// Agent consumes the live-window topic, maintains one GameState per
// game id (created on first sight, discarded when the process exits;
// no eager GC is attempted beyond process lifetime), and publishes
// detected highlights to the highlights topic and the relational
// raw-landing table.
type Agent struct {
	Reader     *kafka.Reader
	Writer     *kafka.Writer
	Relational *sinks.Relational
	Config     Config

	mu    sync.Mutex
	games map[string]*GameState
}

func NewAgent(reader *kafka.Reader, writer *kafka.Writer, relational *sinks.Relational, cfg Config) *Agent {
	return &Agent{
		Reader:     reader,
		Writer:     writer,
		Relational: relational,
		Config:     cfg,
		games:      make(map[string]*GameState),
	}
}

// Run drains the live-window topic until ctx is canceled.
func (a *Agent) Run(ctx context.Context) error {
	for {
		msg, err := a.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("⚠️ highlights: read failed: %v", err)
			continue
		}
		a.handleMessage(ctx, msg)
	}
}

func (a *Agent) handleMessage(ctx context.Context, msg kafka.Message) {
	var env models.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		log.Printf("⚠️ highlights: malformed envelope: %v", err)
		return
	}

	gameID := string(msg.Key)
	if gameID == "" {
		gameID = lastSegment(env.Key)
	}
	if gameID == "" {
		return
	}

	frame, ok := lastFrame(env.Payload)
	if !ok {
		return
	}

	state := a.gameState(gameID)
	highlights, err := Detect(state, frame)
	if err != nil {
		log.Printf("⚠️ highlights: frame decode failed for game %s: %v", gameID, err)
		return
	}

	for _, h := range highlights {
		a.emit(ctx, h)
	}
}

func (a *Agent) gameState(gameID string) *GameState {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.games[gameID]
	if !ok {
		s = NewGameState(gameID, a.Config)
		a.games[gameID] = s
	}
	return s
}

func (a *Agent) emit(ctx context.Context, h Highlight) {
	key := fmt.Sprintf("highlight:%s:%s", h.GameID, h.Kind)
	env, err := models.NewEnvelope(models.TypeHighlight, key, h, "highlights", "1.0", h.At)
	if err != nil {
		log.Printf("⚠️ highlights: failed to build envelope for %s: %v", key, err)
		return
	}

	if a.Writer != nil {
		if err := a.Writer.WriteMessages(ctx, kafka.Message{Key: []byte(h.GameID), Value: mustJSON(env)}); err != nil {
			log.Printf("⚠️ highlights: publish failed for %s: %v", key, err)
		}
	}
	if a.Relational != nil {
		if err := a.Relational.Write(ctx, env); err != nil {
			log.Printf("⚠️ highlights: raw-landing write failed for %s: %v", key, err)
		}
	}
	metrics.HighlightsDetectedTotal.WithLabelValues(h.Kind).Inc()
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// lastFrame reads payload.frames and returns only the most recent one:
// the tailer publishes batches, and older frames in a batch have
// already been reflected in subsequent emissions.
func lastFrame(payload json.RawMessage) (json.RawMessage, bool) {
	var doc struct {
		Frames []json.RawMessage `json:"frames"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil || len(doc.Frames) == 0 {
		return nil, false
	}
	return doc.Frames[len(doc.Frames)-1], true
}

func lastSegment(key string) string {
	idx := -1
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			idx = i
			break
		}
	}
	if idx == -1 {
		return key
	}
	return key[idx+1:]
}
