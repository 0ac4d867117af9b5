package main

import (
	"context"
	"flag"
	"io/fs"
	"log"
	"os"

	"github.com/muhammadchandra19/exchange/pkg/logger"
	migration "github.com/muhammadchandra19/exchange/pkg/migration-pg"
	"github.com/muhammadchandra19/exchange/pkg/postgresql"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/infrastructure/postgresql/migrations"
	"github.com/muhammadchandra19/exchange/services/bar-stream/pkg/config"
)

func main() {
	var (
		direction = flag.String("direction", "up", "Migration direction: up, down or status")
		steps     = flag.Int("steps", 0, "Number of steps to migrate (0 = all)")
		dir       = flag.String("dir", "", "Directory holding the migration files (default: the embedded set)")
	)
	flag.Parse()

	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(
		logger.WithLoggingLevel(logger.ParseLevel(cfg.App.LogLevel)),
		logger.WithService(cfg.App.Name, cfg.App.Environment),
	)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	// Initialize PostgreSQL client
	pgClient, err := postgresql.NewClient(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()

	var files fs.FS = migrations.FS
	if *dir != "" {
		files = os.DirFS(*dir)
	}
	runner := migration.NewRunner(pgClient, files, appLogger, migration.Config{
		Schema:    "public",
		TableName: "schema_migrations",
	})

	if err := runner.EnsureLedger(ctx); err != nil {
		log.Fatalf("Failed to create migration table: %v", err)
	}

	switch *direction {
	case "up":
		if err := runner.Up(ctx, *steps); err != nil {
			log.Fatalf("Failed to migrate up: %v", err)
		}
	case "down":
		if err := runner.Down(ctx, *steps); err != nil {
			log.Fatalf("Failed to migrate down: %v", err)
		}
	case "status":
		pending, err := runner.Pending(ctx)
		if err != nil {
			log.Fatalf("Failed to list pending migrations: %v", err)
		}
		for _, m := range pending {
			appLogger.Info("Pending migration", logger.Field{Key: "migration", Value: m.ID})
		}
	default:
		log.Fatalf("Invalid direction: %s. Use 'up', 'down' or 'status'", *direction)
	}

	appLogger.Info("Migration completed", logger.Field{Key: "direction", Value: *direction})
}
