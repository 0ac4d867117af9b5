package main

import (
	"context"
	"encoding/json"
	"flag"
	"hash/fnv"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/redis"
	tickv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/tick-source/v1"
	ticksource "github.com/muhammadchandra19/exchange/services/bar-stream/internal/infrastructure/tick-source"
	"golang.org/x/sync/errgroup"
)

const progressEvery = 100

func main() {
	var (
		driver     = flag.String("driver", "kafka", "Where to publish ticks: kafka or redis")
		symbols    = flag.String("symbols", "EURUSD", "Symbols to publish (comma-separated)")
		file       = flag.String("file", "", "JSON file with ticks to replay (optional, generates ticks if not provided)")
		delay      = flag.Duration("delay", 100*time.Millisecond, "Delay between generated ticks of one symbol")
		count      = flag.Int("count", 1000, "Ticks to generate per symbol (0 = until interrupted)")
		startPrice = flag.Float64("start-price", 1.0850, "Starting price of generated ticks")
		volatility = flag.Float64("volatility", 0.0005, "Relative stddev of one generated step")
		maxLen     = flag.Int64("max-len", 100000, "Approximate redis stream length cap (0 = unbounded)")
	)
	flag.Parse()

	// Kafka and redis connection settings come from the same variables the server reads.
	_ = godotenv.Load()

	appLogger, err := logger.NewLogger(logger.WithService("tick-producer", ""))
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	if *delay <= 0 {
		log.Fatalf("Invalid delay: %v", *delay)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher, err := newPublisher(ctx, ticksource.Driver(*driver), *maxLen, appLogger)
	if err != nil {
		log.Fatalf("Failed to create %s publisher: %v", *driver, err)
	}
	defer publisher.Close()

	if *file != "" {
		if err := replay(ctx, publisher, *file, appLogger); err != nil {
			log.Fatalf("Failed to replay ticks: %v", err)
		}
		return
	}

	generatorConfig := ticksource.GeneratorConfig{
		Period:     *delay,
		StartPrice: *startPrice,
		Volatility: *volatility,
		Spread:     0.0002,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, symbol := range strings.Split(*symbols, ",") {
		symbol = strings.TrimSpace(symbol)
		if symbol == "" {
			continue
		}

		group.Go(func() error {
			return generate(groupCtx, publisher, symbol, generatorConfig, *count, appLogger)
		})
	}

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatalf("Failed to publish ticks: %v", err)
	}
}

func newPublisher(ctx context.Context, driver ticksource.Driver, maxLen int64, appLogger logger.Interface) (ticksource.Publisher, error) {
	switch driver {
	case ticksource.DriverRedis:
		cfg := redis.Config{}
		if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "REDIS_"}); err != nil {
			return nil, err
		}

		client := redis.NewClient(appLogger, &cfg)
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return ticksource.NewRedisPublisher(client, maxLen), nil
	default:
		cfg := ticksource.KafkaConfig{}
		if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "KAFKA_"}); err != nil {
			return nil, err
		}

		appLogger.Info("Publishing ticks to Kafka",
			logger.Field{Key: "brokers", Value: strings.Join(cfg.Brokers, ",")},
			logger.Field{Key: "topic_prefix", Value: cfg.TopicPrefix},
		)
		return ticksource.NewKafkaPublisher(ticksource.NewKafkaWriter(cfg), cfg), nil
	}
}

func generate(ctx context.Context, publisher ticksource.Publisher, symbol string, config ticksource.GeneratorConfig, count int, appLogger logger.Interface) error {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	source := ticksource.NewGeneratorSource(symbol, config, h.Sum64()^uint64(time.Now().UnixNano()))
	defer source.Close()

	for i := 0; count == 0 || i < count; i++ {
		tick, err := source.Next(ctx)
		if err != nil {
			return err
		}

		if err := publisher.Publish(ctx, tick); err != nil {
			appLogger.Error(err, logger.Field{Key: "symbol", Value: symbol})
			continue
		}

		// Log progress every 100 ticks or for the last tick
		if (i+1)%progressEvery == 0 || i == count-1 {
			appLogger.Info("Sent ticks",
				logger.Field{Key: "symbol", Value: symbol},
				logger.Field{Key: "sent", Value: i + 1},
				logger.Field{Key: "last", Value: tick.Last},
			)
		}
	}

	return nil
}

func replay(ctx context.Context, publisher ticksource.Publisher, path string, appLogger logger.Interface) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var ticks []tickv1.Tick
	if err := json.Unmarshal(data, &ticks); err != nil {
		return err
	}
	appLogger.Info("Loaded ticks from file",
		logger.Field{Key: "file", Value: path},
		logger.Field{Key: "count", Value: len(ticks)},
	)

	for i, tick := range ticks {
		if err := publisher.Publish(ctx, tick); err != nil {
			return err
		}
		if (i+1)%progressEvery == 0 {
			appLogger.Info("Replayed ticks", logger.Field{Key: "sent", Value: i + 1})
		}
	}

	appLogger.Info("Replayed all ticks", logger.Field{Key: "count", Value: len(ticks)})
	return nil
}
