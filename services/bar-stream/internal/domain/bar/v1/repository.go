package v1

import (
	"context"
)

//go:generate mockgen -source=repository.go -destination=mock/repository_mock.go -package=mock

// Repository persists finalized bars.
type Repository interface {
	// LoadRecent returns up to limit of the most recent bars for the key, oldest first.
	LoadRecent(ctx context.Context, symbol, interval string, limit int) ([]Bar, error)
	// Upsert writes bar, replacing any stored bar with the same identity.
	Upsert(ctx context.Context, bar Bar) error
}

// HistoryProvider serves historical bars from an upstream system.
type HistoryProvider interface {
	// Supports reports whether upstream history exists for interval.
	Supports(interval string) bool
	// FetchHistory returns up to limit bars. Order is not guaranteed.
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Bar, error)
}
