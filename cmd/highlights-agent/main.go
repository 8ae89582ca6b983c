// Command highlights-agent consumes the live-telemetry window topic,
// maintains per-game detector state, and publishes detected highlights.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"

	"github.com/herald-lol/esports-ingest/internal/config"
	"github.com/herald-lol/esports-ingest/internal/highlights"
	"github.com/herald-lol/esports-ingest/internal/metrics"
	"github.com/herald-lol/esports-ingest/internal/sinks"
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

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.Kafka.Bootstrap},
		Topic:   "esports.lol.live.window",
		GroupID: "highlights-agent",
	})
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Kafka.Bootstrap),
		Topic:                  "esports.lol.highlights",
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	var relational *sinks.Relational
	if cfg.Postgres.DSN != "" {
		r, err := sinks.OpenRelational(cfg.Postgres.DSN)
		if err != nil {
			log.Printf("⚠️ relational sink disabled: %v", err)
		} else if err := r.Init(context.Background()); err != nil {
			log.Printf("⚠️ relational sink DDL failed: %v", err)
		} else {
			relational = r
		}
	}

	detectorCfg := highlights.Config{
		MultikillWindow:   cfg.Agent.MultikillWindow,
		ComebackWindow:    cfg.Agent.ComebackWindow,
		ComebackSwingGold: cfg.Agent.ComebackSwingGold,
		Cooldowns: highlights.CooldownConfig{
			FirstBlood: cfg.Agent.FirstBloodCooldown,
			Multikill:  cfg.Agent.MultikillCooldown,
			Baron:      cfg.Agent.BaronCooldown,
			Dragon:     cfg.Agent.DragonCooldown,
			Tower:      cfg.Agent.TowerCooldown,
			Inhibitor:  cfg.Agent.InhibitorCooldown,
			Ace:        cfg.Agent.AceCooldown,
			Comeback:   cfg.Agent.ComebackCooldown,
		},
	}

	agent := highlights.NewAgent(reader, writer, relational, detectorCfg)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- agent.Run(ctx) }()

	log.Printf("▶️  highlights-agent started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Printf("shutting down...")
	case err := <-errCh:
		if err != nil {
			log.Printf("⚠️ agent stopped with error: %v", err)
		}
	}

	cancel()
	reader.Close()
	writer.Close()
	if relational != nil {
		relational.Close()
	}
	log.Printf("✓ shutdown complete")
}
