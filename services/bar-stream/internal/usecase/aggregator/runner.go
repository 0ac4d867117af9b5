package aggregator

import (
	"context"
	"time"

	"github.com/muhammadchandra19/exchange/pkg/logger"
	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
	tickv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/tick-source/v1"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/metrics"
)

// Outcome tells Run what to do after one pass.
type Outcome int

const (
	// OutcomeContinue reads the next tick immediately.
	OutcomeContinue Outcome = iota
	// OutcomeRetry waits the retry backoff before reading again.
	OutcomeRetry
	// OutcomeStop ends the loop.
	OutcomeStop
)

func (o Outcome) String() string {
	switch o {
	case OutcomeContinue:
		return "continue"
	case OutcomeRetry:
		return "retry"
	case OutcomeStop:
		return "stop"
	}
	return "unknown"
}

// Broadcaster delivers events to the subscribers of a unit.
type Broadcaster interface {
	Broadcast(ev barv1.Event) int
}

// Runner is the ingestion loop of one aggregation unit.
type Runner struct {
	key     barv1.Key
	machine *Machine
	source  tickv1.TickSource
	store   barv1.Repository
	hub     Broadcaster
	backoff time.Duration
	metrics *metrics.Metrics
	logger  logger.Interface
}

// NewRunner creates a Runner feeding source through machine.
func NewRunner(
	machine *Machine,
	source tickv1.TickSource,
	store barv1.Repository,
	hub Broadcaster,
	backoff time.Duration,
	m *metrics.Metrics,
	log logger.Interface,
) *Runner {
	return &Runner{
		key:     machine.key,
		machine: machine,
		source:  source,
		store:   store,
		hub:     hub,
		backoff: backoff,
		metrics: m,
		logger:  log,
	}
}

// Run consumes ticks until ctx is cancelled and returns ctx.Err().
func (r *Runner) Run(ctx context.Context) error {
	for {
		switch r.step(ctx) {
		case OutcomeStop:
			return ctx.Err()
		case OutcomeRetry:
			timer := time.NewTimer(r.backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
}

func (r *Runner) step(ctx context.Context) Outcome {
	tick, err := r.source.Next(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomeStop
		}
		r.metrics.SourceError(r.key.Symbol, r.key.Interval)
		r.logger.ErrorContext(ctx, err,
			logger.Field{Key: "operation", Value: "NextTick"},
			logger.Field{Key: "key", Value: r.key.String()},
		)
		return OutcomeRetry
	}

	price, ok := tick.Price()
	if !ok {
		r.metrics.SkippedTick(r.key.Symbol, r.key.Interval)
		r.logger.DebugContext(ctx, "Skipping tick without price",
			logger.Field{Key: "key", Value: r.key.String()},
			logger.Field{Key: "timestamp", Value: tick.Timestamp},
		)
		return OutcomeContinue
	}

	step := r.machine.Apply(tick.Timestamp, price)
	if step.Late {
		r.metrics.LateTick(r.key.Symbol, r.key.Interval)
		r.logger.DebugContext(ctx, "Dropping late tick",
			logger.Field{Key: "key", Value: r.key.String()},
			logger.Field{Key: "timestamp", Value: tick.Timestamp},
		)
		return OutcomeContinue
	}
	r.metrics.Tick(r.key.Symbol, r.key.Interval)

	for _, bar := range step.Finalized {
		r.persist(ctx, bar)
		r.hub.Broadcast(barv1.BarUpdate{Bar: bar, Final: true})
	}
	if len(step.Finalized) > 0 {
		r.metrics.Finalized(r.key.Symbol, r.key.Interval, len(step.Finalized), step.Gaps)
	}

	if step.Update != nil {
		r.hub.Broadcast(barv1.BarUpdate{Bar: *step.Update})
	}

	return OutcomeContinue
}

// persist writes a finalized bar before the loop moves on. Failures are logged
// and dropped so the feed keeps running.
func (r *Runner) persist(ctx context.Context, bar barv1.Bar) {
	if err := r.store.Upsert(ctx, bar); err != nil {
		r.metrics.PersistError(r.key.Symbol, r.key.Interval)
		r.logger.ErrorContext(ctx, err,
			logger.Field{Key: "operation", Value: "PersistBar"},
			logger.Field{Key: "key", Value: r.key.String()},
			logger.Field{Key: "bucketStart", Value: bar.BucketStart},
		)
	}
}
