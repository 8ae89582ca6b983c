// Package models holds the canonical event envelope and normalized domain
// shapes carried on the bus and at both sinks.
package models

import (
	"crypto/sha256"
	"encoding/json"
	"time"
)

// Event type tags. Dotted strings, matched by suffix at the relational
// sink and by exact lookup at the broker sink's topic map.
const (
	TypeScheduleUpsert = "lol.schedule.upsert"
	TypeMatchStatus    = "lol.match.status"
	TypeResultUpsert   = "lol.result.upsert"
	TypeLiveWindow     = "lol.live.window"
	TypeLiveDetails    = "lol.live.details"
	TypeHighlight      = "lol.highlight"
)

// Envelope is the single currency on the bus and at both sinks.
type Envelope struct {
	Type    string          `json:"type"`
	At      time.Time       `json:"at"`
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload"`
	Source  string          `json:"source"`
	Version string          `json:"version"`
}

// NewEnvelope marshals payload to canonical JSON and builds an envelope.
// Field order in the marshaled payload follows encoding/json's stable
// struct-tag order, which is what "canonical-JSON" means for the
// payload_hash invariant in spec.md §8.
func NewEnvelope(evType, key string, payload any, source, version string, at time.Time) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Type:    evType,
		At:      at,
		Key:     key,
		Payload: raw,
		Source:  source,
		Version: version,
	}, nil
}

// PayloadHash is SHA-256 over the envelope's canonical-JSON payload bytes,
// used as the uniqueness component of the raw_events table.
func (e Envelope) PayloadHash() [32]byte {
	return sha256.Sum256(e.Payload)
}

// PayloadID extracts payload.id for broker partitioning, falling back to
// the envelope key when absent (spec.md §4.6.2).
func (e Envelope) PayloadID() string {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(e.Payload, &probe); err == nil && len(probe.ID) > 0 {
		var s string
		if err := json.Unmarshal(probe.ID, &s); err == nil && s != "" {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(probe.ID, &n); err == nil && n.String() != "" {
			return n.String()
		}
	}
	return e.Key
}
