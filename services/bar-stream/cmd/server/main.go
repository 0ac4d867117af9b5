package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/muhammadchandra19/exchange/pkg/grpclib/health"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/postgresql"
	"github.com/muhammadchandra19/exchange/pkg/questdb"
	"github.com/muhammadchandra19/exchange/pkg/redis"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/bootstrap"
	ticksource "github.com/muhammadchandra19/exchange/services/bar-stream/internal/infrastructure/tick-source"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/ws"
	"github.com/muhammadchandra19/exchange/services/bar-stream/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const shutdownTimeout = 30 * time.Second

type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.NewLogger(
		logger.WithLoggingLevel(logger.ParseLevel(cfg.App.LogLevel)),
		logger.WithService(cfg.App.Name, cfg.App.Environment),
	)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error(err)
		log.Fatalf("Bar stream service failed: %v", err)
	}
}

func run(cfg *config.Config, appLogger logger.Interface) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bootstrapConfig := bootstrap.BootstrapConfig{
		Config:     cfg,
		Logger:     appLogger,
		Registerer: promRegistry,
	}

	switch cfg.Store.Driver {
	case config.StoreQuestDB:
		client, err := questdb.NewClient(ctx, cfg.QuestDB)
		if err != nil {
			return fmt.Errorf("failed to initialize QuestDB client: %w", err)
		}
		defer client.Close()
		bootstrapConfig.QuestDB = client
	default:
		client, err := postgresql.NewClient(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("failed to initialize PostgreSQL client: %w", err)
		}
		defer client.Close()
		bootstrapConfig.Postgres = client
	}

	if cfg.Source.Driver == ticksource.DriverRedis {
		client := redis.NewClient(appLogger, &cfg.Redis)
		if err := client.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer client.Disconnect(context.Background())
		bootstrapConfig.Redis = client
	}

	var app bootstrap.Bootstrap
	app = app.Init(bootstrapConfig)

	// QuestDB has no migration tool, so the table is created on start.
	if store, ok := app.Repository.Bar.(schemaEnsurer); ok && cfg.Store.Driver == config.StoreQuestDB {
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to ensure bar schema: %w", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle(ws.Path, app.Handler.WS)
	mux.Handle(ws.QuotesPath, app.Handler.Quotes)
	mux.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           app.Handler.Health.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthServer.Register(grpcServer)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.App.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port: %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		appLogger.Info("HTTP server listening", logger.Field{Key: "addr", Value: httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		appLogger.Info("gRPC health server listening", logger.Field{Key: "addr", Value: lis.Addr().String()})
		healthServer.SetServing("", true)
		return grpcServer.Serve(lis)
	})

	group.Go(func() error {
		return app.Usecase.Registry.RunEvictor(groupCtx)
	})

	group.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Shutting down bar stream service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		healthServer.Shutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error(err, logger.Field{Key: "component", Value: "http"})
		}
		grpcServer.GracefulStop()

		return app.Usecase.Registry.Close(shutdownCtx)
	})

	appLogger.Info("Bar stream service started",
		logger.Field{Key: "app", Value: cfg.App.Name},
		logger.Field{Key: "environment", Value: cfg.App.Environment},
		logger.Field{Key: "store", Value: string(cfg.Store.Driver)},
		logger.Field{Key: "source", Value: string(cfg.Source.Driver)},
	)

	if err := group.Wait(); err != nil && err != context.Canceled {
		return err
	}

	appLogger.Info("Bar stream service stopped")
	return nil
}
