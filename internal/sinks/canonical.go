package sinks

import (
	"encoding/json"

	"github.com/herald-lol/esports-ingest/internal/models"
)

func canonicalJSON(e models.Envelope) ([]byte, error) {
	return json.Marshal(e)
}
