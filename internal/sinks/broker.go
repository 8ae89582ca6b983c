package sinks

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/herald-lol/esports-ingest/internal/metrics"
	"github.com/herald-lol/esports-ingest/internal/models"
)

// topicMap routes envelope types to broker topics. Unmapped types are
// dropped silently.
var topicMap = map[string]string{
	models.TypeScheduleUpsert: "esports.lol.schedule.upsert",
	models.TypeMatchStatus:    "esports.lol.match.status",
	models.TypeResultUpsert:   "esports.lol.result.upsert",
	models.TypeLiveWindow:     "esports.lol.live.window",
	models.TypeLiveDetails:    "esports.lol.live.details",
	models.TypeHighlight:      "esports.lol.highlights",
}

// Broker fans envelopes out to topic-per-type through one kafka-go
// writer per mapped topic, keyed by entity id so per-key ordering
// survives partitioning. The writers wait for all in-sync replicas but
// have no idempotent-producer setting: a resent message is not
// de-duplicated by the broker.
type Broker struct {
	mu      sync.Mutex
	writers map[string]*kafka.Writer
	addrs   []string
}

func NewBroker(bootstrap string) *Broker {
	return &Broker{
		writers: make(map[string]*kafka.Writer),
		addrs:   []string{bootstrap},
	}
}

// writerFor lazily creates (checked and created under the mutex) the writer for
// a topic so that the broker never opens a connection to a topic it
// never routes to.
func (b *Broker) writerFor(topic string) *kafka.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := b.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(b.addrs...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Compression:            kafka.Lz4,
		BatchTimeout:           15 * time.Millisecond,
	}
	b.writers[topic] = w
	return w
}

// Write publishes the envelope's canonical JSON to its mapped topic,
// keyed by the payload id (falling back to the envelope key) so events
// for the same entity land on the same partition in emission order.
func (b *Broker) Write(ctx context.Context, e models.Envelope) error {
	topic, ok := topicMap[e.Type]
	if !ok {
		return nil
	}

	raw, err := canonicalJSON(e)
	if err != nil {
		metrics.SinkWritesTotal.WithLabelValues("broker", "error").Inc()
		return err
	}

	w := b.writerFor(topic)
	err = w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.PayloadID()),
		Value: raw,
	})
	if err != nil {
		metrics.SinkWritesTotal.WithLabelValues("broker", "error").Inc()
		return err
	}
	metrics.SinkWritesTotal.WithLabelValues("broker", "ok").Inc()
	return nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var first error
	for _, w := range b.writers {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
