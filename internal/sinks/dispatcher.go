package sinks

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/herald-lol/esports-ingest/internal/models"
)

// Dispatcher fans each envelope out to both configured sinks
// concurrently. Either side may be nil, in which case the pipeline
// degrades to writing only to the other: a missing broker produces
// only into the relational sink, a missing database produces only
// into the broker.
type Dispatcher struct {
	Relational *Relational
	Broker     *Broker
}

// Dispatch invokes both sinks for one envelope, capturing per-sink
// failures without letting either abort the other. A trace id is
// attached purely for log correlation.
func (d *Dispatcher) Dispatch(ctx context.Context, e models.Envelope) {
	traceID := uuid.NewString()

	var wg sync.WaitGroup
	if d.Relational != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Relational.Write(ctx, e); err != nil {
				log.Printf("⚠️  [%s] relational sink failed for %s %s: %v", traceID, e.Type, e.Key, err)
			}
		}()
	}
	if d.Broker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Broker.Write(ctx, e); err != nil {
				log.Printf("⚠️  [%s] broker sink failed for %s %s: %v", traceID, e.Type, e.Key, err)
			}
		}()
	}
	wg.Wait()
}
