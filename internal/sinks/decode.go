package sinks

import (
	"encoding/json"

	"github.com/herald-lol/esports-ingest/internal/models"
)

func unmarshalPayload(e models.Envelope, v any) error {
	return json.Unmarshal(e.Payload, v)
}
