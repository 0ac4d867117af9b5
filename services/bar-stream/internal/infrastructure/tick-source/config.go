package ticksource

import "time"

// Driver selects the TickSource implementation.
type Driver string

const (
	// DriverKafka reads JSON ticks from one topic per symbol.
	DriverKafka Driver = "kafka"
	// DriverRedis reads ticks from one redis stream per symbol.
	DriverRedis Driver = "redis"
	// DriverGenerator synthesizes a random walk.
	DriverGenerator Driver = "generator"
)

// KafkaConfig configures the kafka tick source.
type KafkaConfig struct {
	Brokers     []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	TopicPrefix string   `env:"TOPIC_PREFIX" envDefault:"ticks."`
}

// RedisConfig configures the redis stream tick source.
type RedisConfig struct {
	Block time.Duration `env:"BLOCK" envDefault:"1s"`
	Count int64         `env:"COUNT" envDefault:"100"`
}

// GeneratorConfig configures the synthetic tick source.
type GeneratorConfig struct {
	Period     time.Duration `env:"PERIOD" envDefault:"200ms"`
	StartPrice float64       `env:"START_PRICE" envDefault:"100"`
	// Volatility is the stddev of one step relative to price.
	Volatility float64 `env:"VOLATILITY" envDefault:"0.0005"`
	Spread     float64 `env:"SPREAD" envDefault:"0.0002"`
}
