package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Service     Service     `envconfig:"SERVICE"`
	SQS         SQS         `envconfig:"SQS"`
	ClickHouse  ClickHouse  `envconfig:"CLICKHOUSE"`
	Postgres    Postgres    `envconfig:"POSTGRES"`
	Mongo       Mongo       `envconfig:"MONGO"`
	Valkey      Valkey      `envconfig:"VALKEY"`
	Consumer    Consumer    `envconfig:"CONSUMER"`
	Journey     Journey     `envconfig:"JOURNEY"`
	Identity    Identity    `envconfig:"IDENTITY"`
	Attribution Attribution `ignored:"true"`

	AttributionConfigPath string `envconfig:"ATTRIBUTION_CONFIG_PATH"`
}

type Service struct {
	Environment string `envconfig:"ENVIRONMENT" required:"true"`
	APIPort     string `envconfig:"API_PORT" default:"8080"`
	Host        string `envconfig:"HOST" default:"localhost:8080"`
	// ResultStore selects the attribution result backend: clickhouse or mongo.
	ResultStore string `envconfig:"RESULT_STORE" default:"clickhouse"`
}

type SQS struct {
	Endpoint string `envconfig:"ENDPOINT"`
	QueueURL string `envconfig:"QUEUE_URL" required:"true"`
	Region   string `envconfig:"REGION" required:"true"`
}

type ClickHouse struct {
	Host            string `envconfig:"HOST" required:"true"`
	Port            string `envconfig:"PORT" required:"true"`
	Database        string `envconfig:"DB" required:"true"`
	User            string `envconfig:"USER" default:""`
	Password        string `envconfig:"PASSWORD" default:""`
	UseTLS          bool   `envconfig:"USE_TLS" default:"false"`
	MaxOpenConns    int    `envconfig:"MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int    `envconfig:"MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime int    `envconfig:"CONN_MAX_LIFETIME_SEC" default:"3600"`
}

type Postgres struct {
	DSN      string `envconfig:"DSN" required:"true"`
	MaxConns int32  `envconfig:"MAX_CONNS" default:"10"`
}

type Mongo struct {
	URI      string `envconfig:"URI" default:""`
	Database string `envconfig:"DB" default:"attribution"`
}

type Valkey struct {
	Host                string        `envconfig:"HOST" required:"true"`
	Port                string        `envconfig:"PORT" required:"true"`
	IdempotencyEnabled  bool          `envconfig:"IDEMPOTENCY_ENABLED" default:"true"`
	IdempotencyFailOpen bool          `envconfig:"IDEMPOTENCY_FAIL_OPEN" default:"true"`
	IdempotencyTTL      time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"72h"`
}

type Consumer struct {
	BatchSizeMax    int    `envconfig:"BATCH_SIZE_MAX" default:"50"`
	BatchTimeoutSec int    `envconfig:"BATCH_TIMEOUT_SEC" default:"5"`
	MaxConcurrency  int    `envconfig:"MAX_CONCURRENCY" default:"8"`
	HealthCheckPort string `envconfig:"HEALTH_CHECK_PORT" default:"8081"`
}

type Journey struct {
	MaxCASRetries   int           `envconfig:"MAX_CAS_RETRIES" default:"5"`
	JanitorInterval time.Duration `envconfig:"JANITOR_INTERVAL" default:"1h"`
}

type Identity struct {
	AnonWindow time.Duration `envconfig:"ANON_WINDOW" default:"1s"`
}

// Load reads the environment and then the attribution table. The table falls
// back to DefaultAttribution when ATTRIBUTION_CONFIG_PATH is unset.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if cfg.Journey.JanitorInterval <= 0 {
		return nil, fmt.Errorf("JOURNEY_JANITOR_INTERVAL must be positive, got %s", cfg.Journey.JanitorInterval)
	}

	attribution := DefaultAttribution()
	if cfg.AttributionConfigPath != "" {
		loaded, err := LoadAttribution(cfg.AttributionConfigPath)
		if err != nil {
			return nil, err
		}
		attribution = loaded
	}
	cfg.Attribution = attribution

	return &cfg, nil
}
