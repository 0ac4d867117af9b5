package registry

import "time"

// Config tunes aggregation units and subscriptions.
type Config struct {
	SubscriberBuffer int           `env:"SUBSCRIBER_BUFFER" envDefault:"2048"`
	DefaultBackfill  int           `env:"DEFAULT_BACKFILL" envDefault:"150"`
	MaxBackfill      int           `env:"MAX_BACKFILL" envDefault:"5000"`
	RetryBackoff     time.Duration `env:"RETRY_BACKOFF" envDefault:"50ms"`
	// IdleTimeout stops units without subscribers after this long. Zero keeps
	// units for the life of the process.
	IdleTimeout   time.Duration `env:"IDLE_TIMEOUT" envDefault:"0"`
	EvictInterval time.Duration `env:"EVICT_INTERVAL" envDefault:"30s"`
}
