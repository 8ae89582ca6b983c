// Package bus is the in-process event queue that sits between the
// ingestion streams and the sink dispatcher. Replace it with a broker
// consumer later without touching producer code: publishers only ever
// need "publish an envelope", consumers only ever need "iterate
// envelopes".
package bus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/herald-lol/esports-ingest/internal/models"
)

// Bus is a bounded multi-producer/single-consumer queue. Publish never
// blocks a producer on a full queue; instead the oldest pending envelope
// is dropped and DroppedTotal is incremented. This favors ingestion
// liveness (streams must keep polling) over zero loss, matching the
// latency-sensitive nature of the live-telemetry streams.
type Bus struct {
	mu      sync.Mutex
	items   []models.Envelope
	cap     int
	notify  chan struct{}
	dropped atomic.Int64
}

func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Bus{
		cap:    capacity,
		notify: make(chan struct{}, 1),
	}
}

// Publish enqueues an envelope, dropping the oldest queued envelope if
// the bus is already at capacity.
func (b *Bus) Publish(e models.Envelope) {
	b.mu.Lock()
	if len(b.items) >= b.cap {
		b.items = b.items[1:]
		b.dropped.Add(1)
	}
	b.items = append(b.items, e)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// DroppedTotal reports how many envelopes have been evicted for metrics.
func (b *Bus) DroppedTotal() int64 {
	return b.dropped.Load()
}

// Next blocks until an envelope is available or ctx is canceled, and
// returns envelopes in publish order.
func (b *Bus) Next(ctx context.Context) (models.Envelope, bool) {
	for {
		b.mu.Lock()
		if len(b.items) > 0 {
			e := b.items[0]
			b.items = b.items[1:]
			b.mu.Unlock()
			return e, true
		}
		b.mu.Unlock()

		select {
		case <-b.notify:
		case <-ctx.Done():
			return models.Envelope{}, false
		}
	}
}

// Run drains the bus until ctx is canceled, invoking fn for each
// envelope in order. fn is expected to fan out to sinks itself; Run
// does not run fn concurrently with the next dequeue.
func (b *Bus) Run(ctx context.Context, fn func(models.Envelope)) {
	for {
		e, ok := b.Next(ctx)
		if !ok {
			return
		}
		fn(e)
	}
}
