// Package metrics holds the process-wide Prometheus collectors and the
// HTTP handler that exposes them on PROM_PORT.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_requests_total",
			Help: "Total upstream HTTP requests by client and endpoint",
		},
		[]string{"client", "endpoint"},
	)

	RequestErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_requests_errors_total",
			Help: "Total upstream HTTP requests that failed after retries",
		},
		[]string{"client", "endpoint"},
	)

	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_request_latency_seconds",
			Help:    "Upstream HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"client", "endpoint"},
	)

	EventsOutTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_events_out_total",
			Help: "Total envelopes published to the bus by type",
		},
		[]string{"type"},
	)

	SinkWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_sink_writes_total",
			Help: "Total sink write attempts by sink and outcome",
		},
		[]string{"sink", "outcome"},
	)

	RateLimitRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ingest_rate_limit_remaining",
			Help: "Tokens remaining in the current hourly window, by client",
		},
		[]string{"client"},
	)

	HighlightsDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_highlights_detected_total",
			Help: "Total highlight events detected by kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestErrorsTotal,
		RequestLatency,
		EventsOutTotal,
		SinkWritesTotal,
		RateLimitRemaining,
		HighlightsDetectedTotal,
	)
}

// Handler exposes the registered collectors for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer times a single upstream call and reports it under client/endpoint.
type Timer struct {
	start    time.Time
	client   string
	endpoint string
}

func NewTimer(client, endpoint string) *Timer {
	return &Timer{start: time.Now(), client: client, endpoint: endpoint}
}

func (t *Timer) ObserveError(err error) {
	RequestLatency.WithLabelValues(t.client, t.endpoint).Observe(time.Since(t.start).Seconds())
	RequestsTotal.WithLabelValues(t.client, t.endpoint).Inc()
	if err != nil {
		RequestErrorsTotal.WithLabelValues(t.client, t.endpoint).Inc()
	}
}
