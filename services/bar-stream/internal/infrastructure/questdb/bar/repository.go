package bar

import (
	"context"
	"fmt"
	"time"

	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/questdb"
	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
)

// createTableQuery declares dedup keys on the bar identity, which turns every
// INSERT into an upsert on WAL tables.
const createTableQuery = `CREATE TABLE IF NOT EXISTS bars (
	bucket_start TIMESTAMP,
	symbol SYMBOL,
	granularity SYMBOL,
	open DOUBLE,
	high DOUBLE,
	low DOUBLE,
	close DOUBLE
) TIMESTAMP(bucket_start) PARTITION BY DAY WAL
DEDUP UPSERT KEYS(bucket_start, symbol, granularity)`

const insertQuery = `INSERT INTO bars (bucket_start, symbol, granularity, open, high, low, close) VALUES ($1, $2, $3, $4, $5, $6, $7)`

const selectRecentQuery = `SELECT bucket_start, symbol, granularity, open, high, low, close FROM bars WHERE symbol = $1 AND granularity = $2 ORDER BY bucket_start DESC LIMIT %d`

// Repository stores bars in QuestDB.
type Repository struct {
	client questdb.QuestDBClient
	logger logger.Interface
}

var _ barv1.Repository = (*Repository)(nil)

// NewRepository creates a new bar repository.
func NewRepository(client questdb.QuestDBClient, logger logger.Interface) *Repository {
	return &Repository{
		client: client,
		logger: logger,
	}
}

// EnsureSchema creates the bars table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if err := r.client.Exec(ctx, createTableQuery); err != nil {
		return errors.TracerFromError(err)
	}
	r.logger.InfoContext(ctx, "QuestDB bars table ready")
	return nil
}

// Upsert stores bar. Dedup keys on the table replace an existing row with the same identity.
func (r *Repository) Upsert(ctx context.Context, bar barv1.Bar) error {
	err := r.client.Exec(ctx, insertQuery,
		bar.BucketStart.UTC(),
		bar.Symbol,
		bar.Interval,
		bar.Open,
		bar.High,
		bar.Low,
		bar.Close,
	)
	if err != nil {
		return errors.TracerFromError(err)
	}

	return nil
}

// LoadRecent returns up to limit of the newest bars for the key, oldest first.
func (r *Repository) LoadRecent(ctx context.Context, symbol, interval string, limit int) ([]barv1.Bar, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.client.Query(ctx, fmt.Sprintf(selectRecentQuery, limit), symbol, interval)
	if err != nil {
		return nil, errors.TracerFromError(err)
	}
	defer rows.Close()

	bars := make([]barv1.Bar, limit)
	n := limit
	for rows.Next() {
		if n == 0 {
			break
		}
		var (
			b           barv1.Bar
			bucketStart time.Time
		)
		if err := rows.Scan(&bucketStart, &b.Symbol, &b.Interval, &b.Open, &b.High, &b.Low, &b.Close); err != nil {
			return nil, errors.TracerFromError(err)
		}
		b.BucketStart = bucketStart.UTC()
		// fill from the back so the result comes out ascending
		n--
		bars[n] = b
	}
	if err := rows.Err(); err != nil {
		return nil, errors.TracerFromError(err)
	}

	return bars[n:], nil
}
