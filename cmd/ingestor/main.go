// Command ingestor runs the schedule, results, and live-telemetry
// streams, fanning every normalized envelope out to the relational and
// broker sinks.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/herald-lol/esports-ingest/internal/bus"
	"github.com/herald-lol/esports-ingest/internal/config"
	"github.com/herald-lol/esports-ingest/internal/lolesports"
	"github.com/herald-lol/esports-ingest/internal/metrics"
	"github.com/herald-lol/esports-ingest/internal/models"
	"github.com/herald-lol/esports-ingest/internal/pandascore"
	"github.com/herald-lol/esports-ingest/internal/sinks"
	"github.com/herald-lol/esports-ingest/internal/streams"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.Metrics.Enabled {
		go func() {
			addr := fmt.Sprintf(":%s", cfg.Metrics.Port)
			log.Printf("📊 metrics listening on %s", addr)
			if err := http.ListenAndServe(addr, metrics.Handler()); err != nil {
				log.Printf("⚠️ metrics server stopped: %v", err)
			}
		}()
	}

	dispatcher := buildDispatcher(cfg)
	if dispatcher.Relational == nil && dispatcher.Broker == nil {
		log.Printf("⚠️ no sinks configured; running as a logging-only pipeline")
	}

	b := bus.New(4096)

	psClient := pandascore.NewClient(cfg.PandaScore.BaseURL, cfg.PandaScore.Token, cfg.PandaScore.RateLimitPerHour, cfg.PandaScore.Timeout)
	scheduleStream := streams.NewSchedule(psClient, b, cfg.PandaScore.ScheduleInterval, 50, cfg.PandaScore.LeaguesWhitelist)
	resultsStream := streams.NewResults(psClient, b, cfg.PandaScore.ResultsInterval, 50)

	leClient := lolesports.NewClient(cfg.LoLEsports.GatewayBaseURL, cfg.LoLEsports.FeedBaseURL, cfg.LoLEsports.Locale, cfg.LoLEsports.APIKey, cfg.LoLEsports.Timeout)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		leClient = leClient.WithCache(rdb, cfg.Redis.TTL)
		log.Printf("lolesports response cache enabled via %s", cfg.Redis.Addr)
	}
	liveStream := streams.NewLive(leClient, b, cfg.LoLEsports.DiscoveryInterval, cfg.LoLEsports.WindowInterval, cfg.LoLEsports.DetailsInterval)

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); scheduleStream.Run(ctx) }()
	go func() { defer wg.Done(); resultsStream.Run(ctx) }()
	go func() { defer wg.Done(); liveStream.Run(ctx) }()
	go func() {
		defer wg.Done()
		b.Run(ctx, func(e models.Envelope) { dispatcher.Dispatch(ctx, e) })
	}()

	log.Printf("▶️  ingestor started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Printf("shutting down...")
	cancel()
	wg.Wait()

	if dispatcher.Relational != nil {
		dispatcher.Relational.Close()
	}
	if dispatcher.Broker != nil {
		dispatcher.Broker.Close()
	}
	log.Printf("✓ shutdown complete")
}

func buildDispatcher(cfg *config.Config) *sinks.Dispatcher {
	d := &sinks.Dispatcher{}

	if cfg.Postgres.DSN != "" {
		r, err := sinks.OpenRelational(cfg.Postgres.DSN)
		if err != nil {
			log.Printf("⚠️ relational sink disabled: %v", err)
		} else if err := r.Init(context.Background()); err != nil {
			log.Printf("⚠️ relational sink DDL failed: %v", err)
		} else {
			d.Relational = r
		}
	} else {
		log.Printf("⚠️ PG_DSN not set; relational sink disabled")
	}

	if cfg.Kafka.Bootstrap != "" {
		d.Broker = sinks.NewBroker(cfg.Kafka.Bootstrap)
	} else {
		log.Printf("⚠️ KAFKA_BOOTSTRAP not set; broker sink disabled")
	}

	return d
}
