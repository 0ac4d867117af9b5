package backfill

import (
	"context"
	"sort"

	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
)

// Resolver returns the recent bars a new subscriber starts from.
type Resolver struct {
	store   barv1.Repository
	history barv1.HistoryProvider
	logger  logger.Interface
}

// NewResolver creates a Resolver. history may be nil when no upstream exists.
func NewResolver(store barv1.Repository, history barv1.HistoryProvider, log logger.Interface) *Resolver {
	return &Resolver{
		store:   store,
		history: history,
		logger:  log,
	}
}

// Resolve returns up to depth of the most recent bars, oldest first. The store
// is consulted first. When it has nothing and upstream serves the interval,
// upstream bars are persisted and returned. Failures degrade to an empty
// result, except configuration errors, which are returned.
func (r *Resolver) Resolve(ctx context.Context, symbol, interval string, depth int) ([]barv1.Bar, error) {
	if depth <= 0 {
		return []barv1.Bar{}, nil
	}

	fields := []logger.Field{
		{Key: "symbol", Value: symbol},
		{Key: "interval", Value: interval},
		{Key: "depth", Value: depth},
	}

	bars, err := r.store.LoadRecent(ctx, symbol, interval, depth)
	if err != nil {
		r.logger.ErrorContext(ctx, err, append(fields, logger.Field{Key: "operation", Value: "LoadRecent"})...)
		return []barv1.Bar{}, nil
	}
	if len(bars) > 0 {
		return bars, nil
	}

	if r.history == nil || !r.history.Supports(interval) {
		return []barv1.Bar{}, nil
	}

	bars, err = r.history.FetchHistory(ctx, symbol, interval, depth)
	if err != nil {
		if errors.ErrorCodeEquals(err, string(errors.BarStreamConfigError)) {
			return nil, err
		}
		r.logger.ErrorContext(ctx, err, append(fields, logger.Field{Key: "operation", Value: "FetchHistory"})...)
		return []barv1.Bar{}, nil
	}

	bars = r.valid(ctx, bars, fields)
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].BucketStart.Before(bars[j].BucketStart)
	})
	if len(bars) > depth {
		bars = bars[len(bars)-depth:]
	}

	for _, bar := range bars {
		if err := r.store.Upsert(ctx, bar); err != nil {
			r.logger.ErrorContext(ctx, err, append(fields,
				logger.Field{Key: "operation", Value: "Upsert"},
				logger.Field{Key: "bucketStart", Value: bar.BucketStart},
			)...)
		}
	}

	r.logger.InfoContext(ctx, "Backfilled from upstream history", append(fields, logger.Field{Key: "count", Value: len(bars)})...)

	return bars, nil
}

// valid drops malformed upstream bars so they are never persisted.
func (r *Resolver) valid(ctx context.Context, bars []barv1.Bar, fields []logger.Field) []barv1.Bar {
	kept := bars[:0]
	for _, bar := range bars {
		if err := bar.Validate(); err != nil {
			r.logger.WarnContext(ctx, "Dropping malformed upstream bar", append(fields,
				logger.Field{Key: "bucketStart", Value: bar.BucketStart},
				logger.Field{Key: "reason", Value: err.Error()},
			)...)
			continue
		}
		kept = append(kept, bar)
	}
	return kept
}
