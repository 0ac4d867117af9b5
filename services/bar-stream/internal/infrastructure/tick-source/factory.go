package ticksource

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/redis"
	tickv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/tick-source/v1"
)

// Config selects and configures the tick source driver.
type Config struct {
	Driver Driver `env:"DRIVER" envDefault:"generator"`
}

// Factory opens the configured TickSource variant per symbol.
type Factory struct {
	driver    Driver
	kafka     KafkaConfig
	redis     RedisConfig
	generator GeneratorConfig

	redisClient redis.Client
	newReader   func(config KafkaConfig, symbol string) MessageReader
	logger      logger.Interface
}

var _ tickv1.SourceFactory = (*Factory)(nil)

// Option configures a Factory.
type Option func(*Factory)

// WithKafka enables the kafka driver.
func WithKafka(config KafkaConfig) Option {
	return func(f *Factory) {
		f.kafka = config
	}
}

// WithRedis enables the redis driver on a connected client.
func WithRedis(client redis.Client, config RedisConfig) Option {
	return func(f *Factory) {
		f.redisClient = client
		f.redis = config
	}
}

// WithGenerator configures the generator driver.
func WithGenerator(config GeneratorConfig) Option {
	return func(f *Factory) {
		f.generator = config
	}
}

// WithReaderFunc replaces how kafka readers are created.
func WithReaderFunc(fn func(config KafkaConfig, symbol string) MessageReader) Option {
	return func(f *Factory) {
		f.newReader = fn
	}
}

// NewFactory creates a Factory for driver.
func NewFactory(driver Driver, log logger.Interface, opts ...Option) *Factory {
	f := &Factory{
		driver: driver,
		newReader: func(config KafkaConfig, symbol string) MessageReader {
			return NewKafkaReader(config, symbol)
		},
		logger: log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open returns a fresh source for symbol.
func (f *Factory) Open(ctx context.Context, symbol string) (tickv1.TickSource, error) {
	log := f.logger.WithFields(
		logger.Field{Key: "symbol", Value: symbol},
		logger.Field{Key: "driver", Value: string(f.driver)},
	)

	switch f.driver {
	case DriverKafka:
		if len(f.kafka.Brokers) == 0 {
			return nil, errors.NewErrorDetails("kafka brokers are not configured", string(errors.BarStreamConfigError), "KAFKA_BROKERS")
		}
		return NewKafkaSource(symbol, f.newReader(f.kafka, symbol), log), nil
	case DriverRedis:
		if f.redisClient == nil {
			return nil, errors.NewErrorDetails("redis client is not configured", string(errors.BarStreamConfigError), "REDIS_ADDRS")
		}
		return NewRedisSource(symbol, f.redisClient, f.redis, log), nil
	case DriverGenerator:
		if f.generator.Period <= 0 {
			return nil, errors.NewErrorDetails("generator period must be positive", string(errors.BarStreamConfigError), "GENERATOR_PERIOD")
		}
		return NewGeneratorSource(symbol, f.generator, seedFor(symbol)), nil
	default:
		return nil, errors.NewErrorDetails("unknown tick source driver "+string(f.driver), string(errors.BarStreamConfigError), "SOURCE_DRIVER")
	}
}

func seedFor(symbol string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return h.Sum64() ^ uint64(time.Now().UnixNano())
}
