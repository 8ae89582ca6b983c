// Package config loads the ingestion pipeline's configuration from a YAML
// file overlaid with environment variables, in the same layered order the
// rest of the herald stack uses.
package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds every configurable knob for both the ingestor and the
// highlights agent. Both binaries load the same struct; each reads only
// the sections it needs.
type Config struct {
	PandaScore PandaScoreConfig `mapstructure:"pandascore"`
	LoLEsports LoLEsportsConfig `mapstructure:"lolesports"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Agent      AgentConfig      `mapstructure:"agent"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type PandaScoreConfig struct {
	Token           string        `mapstructure:"token"`
	BaseURL         string        `mapstructure:"base_url"`
	RateLimitPerHour int          `mapstructure:"rate_limit_per_hour"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ScheduleInterval time.Duration `mapstructure:"schedule_interval"`
	ResultsInterval time.Duration `mapstructure:"results_interval"`
	LeaguesWhitelist []string     `mapstructure:"leagues_whitelist"`
}

type LoLEsportsConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	GatewayBaseURL    string        `mapstructure:"gw_base"`
	FeedBaseURL       string        `mapstructure:"feed_base"`
	Locale            string        `mapstructure:"hl"`
	Timeout           time.Duration `mapstructure:"timeout"`
	DiscoveryInterval time.Duration `mapstructure:"discovery_interval"`
	WindowInterval    time.Duration `mapstructure:"window_interval"`
	DetailsInterval   time.Duration `mapstructure:"details_interval"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type KafkaConfig struct {
	Bootstrap string `mapstructure:"bootstrap"`
}

type RedisConfig struct {
	Addr    string        `mapstructure:"addr"`
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type AgentConfig struct {
	MultikillWindow   time.Duration `mapstructure:"multikill_window"`
	ComebackWindow    time.Duration `mapstructure:"comeback_window"`
	ComebackSwingGold int           `mapstructure:"comeback_swing_gold"`

	FirstBloodCooldown time.Duration `mapstructure:"first_blood_cooldown"`
	MultikillCooldown  time.Duration `mapstructure:"multikill_cooldown"`
	BaronCooldown      time.Duration `mapstructure:"baron_cooldown"`
	DragonCooldown     time.Duration `mapstructure:"dragon_cooldown"`
	TowerCooldown      time.Duration `mapstructure:"tower_cooldown"`
	InhibitorCooldown  time.Duration `mapstructure:"inhibitor_cooldown"`
	AceCooldown        time.Duration `mapstructure:"ace_cooldown"`
	ComebackCooldown   time.Duration `mapstructure:"comeback_cooldown"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

// Load reads config.yaml from ./configs or, failing that, the working
// directory (if present) and layers environment variables
// on top, then applies the explicit overrides that take priority over
// both, matching the pattern the rest of the stack follows.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("⚠️  no config file found, using defaults and environment variables")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("pandascore.base_url", "https://api.pandascore.co/lol")
	viper.SetDefault("pandascore.rate_limit_per_hour", 1000)
	viper.SetDefault("pandascore.timeout", "10s")
	viper.SetDefault("pandascore.schedule_interval", "60s")
	viper.SetDefault("pandascore.results_interval", "90s")
	viper.SetDefault("pandascore.leagues_whitelist", []string{})

	viper.SetDefault("lolesports.gw_base", "https://esports-api.lolesports.com/persisted/gw")
	viper.SetDefault("lolesports.feed_base", "https://feed.lolesports.com/livestats/v1")
	viper.SetDefault("lolesports.hl", "en-US")
	viper.SetDefault("lolesports.timeout", "5s")
	viper.SetDefault("lolesports.discovery_interval", "20s")
	viper.SetDefault("lolesports.window_interval", "10s")
	viper.SetDefault("lolesports.details_interval", "30s")

	// Intentionally no defaults for postgres.dsn / kafka.bootstrap: these
	// are env-only (PG_DSN / KAFKA_BOOTSTRAP) per spec.md §6, and an
	// absent value must disable the corresponding sink rather than reach
	// for a localhost connection.

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.ttl", "30s")

	viper.SetDefault("agent.multikill_window", "60s")
	viper.SetDefault("agent.comeback_window", "300s")
	viper.SetDefault("agent.comeback_swing_gold", 5000)
	viper.SetDefault("agent.first_blood_cooldown", "24h")
	viper.SetDefault("agent.multikill_cooldown", "20s")
	viper.SetDefault("agent.baron_cooldown", "20s")
	viper.SetDefault("agent.dragon_cooldown", "20s")
	viper.SetDefault("agent.tower_cooldown", "10s")
	viper.SetDefault("agent.inhibitor_cooldown", "20s")
	viper.SetDefault("agent.ace_cooldown", "20s")
	viper.SetDefault("agent.comeback_cooldown", "120s")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", "9102")
}

// overrideWithEnv applies the handful of env vars that are expected to be
// set directly by the deployment environment (secrets, connection
// strings) rather than discovered through viper's automatic binding.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("PANDASCORE_TOKEN"); v != "" {
		cfg.PandaScore.Token = v
	}
	if v := os.Getenv("LOLESPORTS_API_KEY"); v != "" {
		cfg.LoLEsports.APIKey = v
	}
	if v := os.Getenv("PG_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("KAFKA_BOOTSTRAP"); v != "" {
		cfg.Kafka.Bootstrap = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("PROM_PORT"); v != "" {
		cfg.Metrics.Port = v
	}
}
