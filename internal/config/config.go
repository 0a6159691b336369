// Package config centralises configuration parsing for the clubs service.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures runtime configuration values for the clubs binaries.
type Config struct {
	HTTPAddress    string   `env:"HTTP_ADDRESS"         envDefault:":8080"`
	MetricsAddress string   `env:"METRICS_ADDRESS"      envDefault:":9090"`
	LogLevel       string   `env:"LOG_LEVEL"            envDefault:"info"`
	LogFormat      string   `env:"LOG_FORMAT"           envDefault:"json"`
	CatalogFile    string   `env:"CATALOG_FILE"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	// Roster events are only published when at least one broker is set.
	KafkaBrokers       []string      `env:"KAFKA_BROKERS"        envSeparator:","`
	RosterTopic        string        `env:"ROSTER_TOPIC"         envDefault:"roster_events"`
	SchemaRegistryURL  string        `env:"SCHEMA_REGISTRY_URL"  envDefault:"http://schema-registry:8081"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE"    envDefault:"25"`
	OutboxCapacity     int           `env:"OUTBOX_CAPACITY"      envDefault:"1024"`

	PostgresURL     string `env:"POSTGRES_URL"`
	ConsumerGroupID string `env:"CONSUMER_GROUP_ID" envDefault:"clubs-roster-audit"`

	DLQPollInterval time.Duration `env:"DLQ_POLL_INTERVAL" envDefault:"30s"` // Interval between DLQ polling iterations.
	DLQMaxRetries   int           `env:"DLQ_MAX_RETRIES"   envDefault:"5"`   // Attempts before an entry is quarantined.
	DLQBaseDelay    time.Duration `env:"DLQ_BASE_DELAY"    envDefault:"1m"`  // Base delay for exponential backoff.
}

// Load reads environment variables into Config, applying defaults for local dev.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// EventsEnabled reports whether roster events should be sent to Kafka.
func (c Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func (c Config) validate() error {
	if c.OutboxPollInterval <= 0 {
		return fmt.Errorf("OUTBOX_POLL_INTERVAL must be positive, got %s", c.OutboxPollInterval)
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", c.OutboxBatchSize)
	}
	if c.OutboxCapacity <= 0 {
		return fmt.Errorf("OUTBOX_CAPACITY must be positive, got %d", c.OutboxCapacity)
	}
	return nil
}
