package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/postgresql"
	"github.com/muhammadchandra19/exchange/pkg/questdb"
	"github.com/muhammadchandra19/exchange/pkg/redis"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/infrastructure/history"
	ticksource "github.com/muhammadchandra19/exchange/services/bar-stream/internal/infrastructure/tick-source"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/usecase/registry"
)

// StoreDriver selects the bar store.
type StoreDriver string

const (
	// StorePostgres stores bars in PostgreSQL.
	StorePostgres StoreDriver = "postgres"
	// StoreQuestDB stores bars in QuestDB over the PG wire protocol.
	StoreQuestDB StoreDriver = "questdb"
)

// Config represents the application configuration.
type Config struct {
	App       AppConfig                  `envPrefix:"APP_"`
	Store     StoreConfig                `envPrefix:"STORE_"`
	Postgres  postgresql.Config          `envPrefix:"POSTGRES_"`
	QuestDB   questdb.Config             `envPrefix:"QUESTDB_"`
	Source    ticksource.Config          `envPrefix:"SOURCE_"`
	Kafka     ticksource.KafkaConfig     `envPrefix:"KAFKA_"`
	Redis     redis.Config               `envPrefix:"REDIS_"`
	Stream    ticksource.RedisConfig     `envPrefix:"REDIS_STREAM_"`
	Generator ticksource.GeneratorConfig `envPrefix:"GENERATOR_"`
	History   history.Config             `envPrefix:"HISTORY_"`
	Registry  registry.Config            `envPrefix:"STREAM_"`
	Auth      AuthConfig                 `envPrefix:"AUTH_"`
}

// AppConfig represents the application configuration.
type AppConfig struct {
	Name        string `env:"NAME" envDefault:"bar-stream"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        int    `env:"PORT" envDefault:"8080"`
	GRPCPort    int    `env:"GRPC_PORT" envDefault:"8880"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// StoreConfig selects the bar store.
type StoreConfig struct {
	Driver StoreDriver `env:"DRIVER" envDefault:"postgres"`
}

// AuthConfig configures websocket token checks.
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	baseErr := errors.NewBaseError()
	invalid := func(field, message string) {
		baseErr.AddErrorDetails(errors.NewErrorDetails(message, string(errors.BarStreamConfigError), field))
	}

	if c.App.Port <= 0 {
		invalid("APP_PORT", "port must be positive")
	}
	if c.App.GRPCPort <= 0 {
		invalid("APP_GRPC_PORT", "grpc port must be positive")
	}

	switch c.Store.Driver {
	case StorePostgres, StoreQuestDB:
	default:
		invalid("STORE_DRIVER", fmt.Sprintf("unknown store driver %q", c.Store.Driver))
	}

	switch c.Source.Driver {
	case ticksource.DriverKafka:
		if len(c.Kafka.Brokers) == 0 {
			invalid("KAFKA_BROKERS", "kafka brokers are required")
		}
	case ticksource.DriverRedis:
		if len(c.Redis.Addrs) == 0 {
			invalid("REDIS_ADDRS", "redis addresses are required")
		}
	case ticksource.DriverGenerator:
		if c.Generator.Period <= 0 {
			invalid("GENERATOR_PERIOD", "generator period must be positive")
		}
		if c.Generator.StartPrice <= 0 {
			invalid("GENERATOR_START_PRICE", "generator start price must be positive")
		}
	default:
		invalid("SOURCE_DRIVER", fmt.Sprintf("unknown tick source driver %q", c.Source.Driver))
	}

	if c.Registry.SubscriberBuffer <= 0 {
		invalid("STREAM_SUBSCRIBER_BUFFER", "subscriber buffer must be positive")
	}
	if c.Registry.DefaultBackfill < 0 {
		invalid("STREAM_DEFAULT_BACKFILL", "default backfill must not be negative")
	}
	if c.Registry.MaxBackfill < c.Registry.DefaultBackfill {
		invalid("STREAM_MAX_BACKFILL", "max backfill must not be below the default")
	}
	if c.Registry.RetryBackoff <= 0 {
		invalid("STREAM_RETRY_BACKOFF", "retry backoff must be positive")
	}
	if c.Registry.IdleTimeout < 0 {
		invalid("STREAM_IDLE_TIMEOUT", "idle timeout must not be negative")
	}
	if c.Registry.IdleTimeout > 0 && c.Registry.EvictInterval <= 0 {
		invalid("STREAM_EVICT_INTERVAL", "evict interval must be positive when idle eviction is on")
	}

	if c.Auth.JWTSecret == "" {
		invalid("AUTH_JWT_SECRET", "jwt secret is required")
	}

	if baseErr.HasDetails() {
		return baseErr
	}
	return nil
}
