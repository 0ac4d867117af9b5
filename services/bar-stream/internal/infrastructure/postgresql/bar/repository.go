package bar

import (
	"context"
	"time"

	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/postgresql"
	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
)

const (
	tableName = "bars"

	upsertSet = "open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low, close = EXCLUDED.close, updated_at = NOW()"
)

var columns = []string{"symbol", "granularity", "bucket_start", "open", "high", "low", "close"}

// Repository stores bars in PostgreSQL. Upserts are atomic on the
// (symbol, granularity, bucket_start) primary key.
type Repository struct {
	db     postgresql.PostgreSQLClient
	logger logger.Interface
}

var _ barv1.Repository = (*Repository)(nil)

// NewRepository creates a new repository.
func NewRepository(db postgresql.PostgreSQLClient, logger logger.Interface) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts bar or overwrites the OHLC of the stored bar with the same identity.
func (r *Repository) Upsert(ctx context.Context, bar barv1.Bar) error {
	query, args := postgresql.NewInsertBuilder().
		Into(tableName).
		Columns(columns...).
		Values(bar.Symbol, bar.Interval, bar.BucketStart.UTC(), bar.Open, bar.High, bar.Low, bar.Close).
		OnConflict("symbol", "granularity", "bucket_start").
		OnConflictDoUpdate(upsertSet).
		Build()

	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return errors.TracerFromError(err)
	}

	r.logger.DebugContext(ctx, "Upserted bar", logger.Field{
		Key:   "commandTag",
		Value: cmd.String(),
	})

	return nil
}

// LoadRecent returns up to limit of the newest bars for the key, oldest first.
func (r *Repository) LoadRecent(ctx context.Context, symbol, interval string, limit int) ([]barv1.Bar, error) {
	if limit <= 0 {
		return nil, nil
	}

	query, args := postgresql.NewQueryBuilder().
		Select(columns...).
		From(tableName).
		Where("symbol = ?", symbol).
		Where("granularity = ?", interval).
		OrderBy("bucket_start", true).
		Limit(limit).
		Build()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.TracerFromError(err)
	}
	defer rows.Close()

	bars := make([]barv1.Bar, 0, limit)
	for rows.Next() {
		var (
			b           barv1.Bar
			bucketStart time.Time
		)
		if err := rows.Scan(&b.Symbol, &b.Interval, &bucketStart, &b.Open, &b.High, &b.Low, &b.Close); err != nil {
			return nil, errors.TracerFromError(err)
		}
		b.BucketStart = bucketStart.UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.TracerFromError(err)
	}

	// newest first from the index, callers want ascending
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	return bars, nil
}
