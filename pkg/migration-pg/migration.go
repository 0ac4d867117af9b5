package migrationpg

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/postgresql"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// Migration is one versioned schema change, read from a `<id>.up.sql` file
// and its optional `<id>.down.sql` pair. Files sort by id.
type Migration struct {
	ID      string
	UpSQL   string
	DownSQL string
}

// Config for migration runner
type Config struct {
	Schema    string // default "public"
	TableName string // default "schema_migrations"
}

// Runner applies migrations from a file system to PostgreSQL, tracking them
// in a ledger table.
type Runner struct {
	client postgresql.PostgreSQLClient
	files  fs.FS
	logger logger.Interface
	ledger string
}

// NewRunner creates a Runner over the migration files in files.
func NewRunner(client postgresql.PostgreSQLClient, files fs.FS, log logger.Interface, config Config) *Runner {
	if config.Schema == "" {
		config.Schema = "public"
	}
	if config.TableName == "" {
		config.TableName = "schema_migrations"
	}

	return &Runner{
		client: client,
		files:  files,
		logger: log,
		ledger: pgx.Identifier{config.Schema, config.TableName}.Sanitize(),
	}
}

// EnsureLedger creates the ledger table when missing.
func (r *Runner) EnsureLedger(ctx context.Context) error {
	_, err := r.client.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id         TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`, r.ledger))
	if err != nil {
		return errors.TracerFromError(err)
	}
	return nil
}

// Applied returns the ids recorded in the ledger.
func (r *Runner) Applied(ctx context.Context) (map[string]bool, error) {
	rows, err := r.client.Query(ctx, fmt.Sprintf("SELECT id FROM %s", r.ledger))
	if err != nil {
		return nil, errors.TracerFromError(err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.TracerFromError(err)
		}
		applied[id] = true
	}

	return applied, rows.Err()
}

// Load reads every migration in the file system, oldest first. Down files
// without an up file are ignored.
func (r *Runner) Load() ([]Migration, error) {
	ups, err := fs.Glob(r.files, "*"+upSuffix)
	if err != nil {
		return nil, err
	}
	sort.Strings(ups)

	migrations := make([]Migration, 0, len(ups))
	for _, up := range ups {
		id := strings.TrimSuffix(path.Base(up), upSuffix)

		upSQL, err := fs.ReadFile(r.files, up)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", id, err)
		}
		downSQL, err := fs.ReadFile(r.files, id+downSuffix)
		if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read migration %s: %w", id, err)
		}

		migrations = append(migrations, Migration{
			ID:      id,
			UpSQL:   strings.TrimSpace(string(upSQL)),
			DownSQL: strings.TrimSpace(string(downSQL)),
		})
	}

	return migrations, nil
}

// Pending returns the migrations not yet in the ledger, oldest first.
func (r *Runner) Pending(ctx context.Context) ([]Migration, error) {
	migrations, err := r.Load()
	if err != nil {
		return nil, err
	}
	applied, err := r.Applied(ctx)
	if err != nil {
		return nil, err
	}

	pending := migrations[:0]
	for _, m := range migrations {
		if !applied[m.ID] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// Up applies at most steps pending migrations, all of them when steps is 0.
// Each migration and its ledger row commit together.
func (r *Runner) Up(ctx context.Context, steps int) error {
	pending, err := r.Pending(ctx)
	if err != nil {
		return err
	}
	if steps > 0 && len(pending) > steps {
		pending = pending[:steps]
	}

	for _, m := range pending {
		if m.UpSQL == "" {
			r.logger.Warn("Skipping empty migration", logger.Field{Key: "migration", Value: m.ID})
			continue
		}

		err := r.apply(ctx, m.UpSQL, fmt.Sprintf("INSERT INTO %s (id) VALUES ($1)", r.ledger), m.ID)
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", m.ID, err)
		}
		r.logger.Info("Applied migration", logger.Field{Key: "migration", Value: m.ID})
	}

	return nil
}

// Down reverts the newest steps applied migrations.
func (r *Runner) Down(ctx context.Context, steps int) error {
	if steps <= 0 {
		return errors.NewErrorDetails("down migrations need a positive step count", string(errors.GeneralBadRequestError), "steps")
	}

	migrations, err := r.Load()
	if err != nil {
		return err
	}
	applied, err := r.Applied(ctx)
	if err != nil {
		return err
	}

	for i := len(migrations) - 1; i >= 0 && steps > 0; i-- {
		m := migrations[i]
		if !applied[m.ID] {
			continue
		}
		if m.DownSQL == "" {
			return errors.NewErrorDetails(fmt.Sprintf("migration %s has no down file", m.ID), string(errors.GeneralBadRequestError), m.ID)
		}

		err := r.apply(ctx, m.DownSQL, fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.ledger), m.ID)
		if err != nil {
			return fmt.Errorf("revert migration %s: %w", m.ID, err)
		}
		r.logger.Info("Reverted migration", logger.Field{Key: "migration", Value: m.ID})
		steps--
	}

	return nil
}

func (r *Runner) apply(ctx context.Context, script, ledgerSQL, id string) error {
	return postgresql.WithTx(ctx, r.client, func(txCtx context.Context) error {
		if _, err := r.client.Exec(txCtx, script); err != nil {
			return errors.TracerFromError(err)
		}
		if _, err := r.client.Exec(txCtx, ledgerSQL, id); err != nil {
			return errors.TracerFromError(err)
		}
		return nil
	})
}
