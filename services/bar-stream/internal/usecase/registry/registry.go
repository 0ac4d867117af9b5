package registry

import (
	"context"
	"sync"
	"time"

	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/util"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar"
	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
	tickv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/tick-source/v1"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/metrics"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/usecase/aggregator"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/usecase/hub"
	"github.com/muhammadchandra19/exchange/services/bar-stream/pkg/interval"
)

// ErrClosed is returned once the registry has been closed.
var ErrClosed = errors.NewErrorDetails("registry is closed", string(errors.BarStreamUnitClosed), "registry")

// Resolver produces the backfill snapshot of a subscription.
type Resolver interface {
	Resolve(ctx context.Context, symbol, interval string, depth int) ([]barv1.Bar, error)
}

// Unit is one running aggregation unit.
type Unit struct {
	key    barv1.Key
	hub    *hub.Hub
	cancel context.CancelFunc
	done   chan struct{}

	// idleSince is guarded by the registry mutex.
	idleSince time.Time
}

// Key returns the unit key.
func (u *Unit) Key() barv1.Key {
	return u.key
}

// Subscribers returns the number of live subscribers.
func (u *Unit) Subscribers() int {
	return u.hub.Len()
}

// Done is closed once the unit's ingestion task has exited.
func (u *Unit) Done() <-chan struct{} {
	return u.done
}

// Registry owns the aggregation units of the process, one per key.
type Registry struct {
	ctx    context.Context
	cancel context.CancelFunc

	sources  tickv1.SourceFactory
	store    barv1.Repository
	resolver Resolver
	config   Config
	metrics  *metrics.Metrics
	logger   logger.Interface
	now      func() time.Time

	mu    sync.Mutex
	units map[barv1.Key]*Unit
	// draining holds evicted units whose ingestion task has not exited yet.
	draining map[barv1.Key]*Unit
	closed   bool
	wg       sync.WaitGroup
}

var _ bar.Usecase = (*Registry)(nil)

// New creates an empty registry. Ingestion tasks run until their unit is
// evicted or Close is called.
func New(
	sources tickv1.SourceFactory,
	store barv1.Repository,
	resolver Resolver,
	config Config,
	m *metrics.Metrics,
	log logger.Interface,
) *Registry {
	ctx, cancel := context.WithCancel(context.Background())

	return &Registry{
		ctx:      ctx,
		cancel:   cancel,
		sources:  sources,
		store:    store,
		resolver: resolver,
		config:   config,
		metrics:  m,
		logger:   log,
		now:      time.Now,
		units:    make(map[barv1.Key]*Unit),
		draining: make(map[barv1.Key]*Unit),
	}
}

// GetOrCreate returns the unit for the key, starting its ingestion task on
// first use. Unknown intervals coerce to the smallest one.
func (r *Registry) GetOrCreate(symbol, intervalName string) (*Unit, error) {
	u, err := r.lockUnit(context.Background(), symbol, interval.Resolve(intervalName))
	if err != nil {
		return nil, err
	}
	r.mu.Unlock()

	return u, nil
}

// lockUnit returns the unit for the key with r.mu held. An evicted unit of the
// same key is waited out first, so a key never has two ingestion tasks.
func (r *Registry) lockUnit(ctx context.Context, symbol string, iv interval.Interval) (*Unit, error) {
	key := barv1.Key{Symbol: symbol, Interval: iv.Name}
	for {
		r.mu.Lock()
		prev, draining := r.draining[key]
		if !draining {
			u, err := r.getOrCreateLocked(symbol, iv)
			if err != nil {
				r.mu.Unlock()
				return nil, err
			}
			return u, nil
		}
		r.mu.Unlock()

		select {
		case <-prev.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (r *Registry) getOrCreateLocked(symbol string, iv interval.Interval) (*Unit, error) {
	if r.closed {
		return nil, ErrClosed
	}

	key := barv1.Key{Symbol: symbol, Interval: iv.Name}
	if u, ok := r.units[key]; ok {
		return u, nil
	}

	source, err := r.sources.Open(r.ctx, symbol)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(r.ctx)
	u := &Unit{
		key:    key,
		hub:    hub.New(key, r.config.SubscriberBuffer, r.metrics),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.units[key] = u

	log := r.logger.WithFields(logger.Field{Key: "key", Value: key.String()})
	runner := aggregator.NewRunner(aggregator.NewMachine(symbol, iv), source, r.store, u.hub, r.config.RetryBackoff, r.metrics, log)

	r.wg.Add(1)
	r.metrics.UnitStarted()
	go func() {
		defer r.wg.Done()
		defer close(u.done)
		defer r.drained(u)
		defer r.metrics.UnitStopped(key.Symbol, key.Interval)
		defer u.hub.Close()
		defer func() {
			if err := source.Close(); err != nil {
				log.Error(err, logger.Field{Key: "operation", Value: "CloseSource"})
			}
		}()

		log.InfoContext(ctx, "Aggregation unit started")
		_ = runner.Run(ctx)
		log.InfoContext(context.Background(), "Aggregation unit stopped")
	}()

	return u, nil
}

// Subscribe registers a subscriber on the key's unit and returns its event
// stream: one Snapshot holding up to depth recent bars, then live updates.
// Configuration errors from the backfill are returned and nothing is registered.
func (r *Registry) Subscribe(ctx context.Context, symbol, intervalName string, depth int) (<-chan barv1.Event, error) {
	iv := interval.Resolve(intervalName)

	u, err := r.lockUnit(ctx, symbol, iv)
	if err != nil {
		return nil, err
	}
	sub := u.hub.Subscribe()
	r.mu.Unlock()

	ctx = util.WithSubscriptionID(ctx, sub.ID)
	bars, err := r.resolver.Resolve(ctx, symbol, iv.Name, depth)
	if err != nil {
		u.hub.Unsubscribe(sub.ID)
		return nil, err
	}

	out := make(chan barv1.Event)
	go r.forward(ctx, u, sub, barv1.Snapshot{Key: u.key, Bars: bars}, out)

	return out, nil
}

// drained forgets u once its ingestion task is done.
func (r *Registry) drained(u *Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.draining[u.key] == u {
		delete(r.draining, u.key)
	}
}

// forward delivers the snapshot, then live events. Updates for buckets older
// than the newest snapshot bar are already final in the snapshot and skipped.
func (r *Registry) forward(ctx context.Context, u *Unit, sub *hub.Subscription, snapshot barv1.Snapshot, out chan<- barv1.Event) {
	defer close(out)

	select {
	case out <- snapshot:
	case <-ctx.Done():
		u.hub.Unsubscribe(sub.ID)
		return
	}

	var watermark time.Time
	if n := len(snapshot.Bars); n > 0 {
		watermark = snapshot.Bars[n-1].BucketStart
	}

	for {
		select {
		case <-ctx.Done():
			u.hub.Unsubscribe(sub.ID)
			return
		case ev, ok := <-sub.C:
			if !ok {
				if err := sub.Err(); err != nil {
					r.logger.WarnContext(ctx, "Subscription ended",
						logger.Field{Key: "key", Value: u.key.String()},
						logger.Field{Key: "reason", Value: err.Error()},
					)
					select {
					case out <- barv1.Terminal{Err: err}:
					case <-ctx.Done():
					}
				}
				return
			}

			if upd, isUpdate := ev.(barv1.BarUpdate); isUpdate && upd.Bar.BucketStart.Before(watermark) {
				continue
			}

			select {
			case out <- ev:
			case <-ctx.Done():
				u.hub.Unsubscribe(sub.ID)
				return
			}
		}
	}
}

// Units returns the running units.
func (r *Registry) Units() []*Unit {
	r.mu.Lock()
	defer r.mu.Unlock()

	units := make([]*Unit, 0, len(r.units))
	for _, u := range r.units {
		units = append(units, u)
	}
	return units
}

// EvictIdle stops units that have had no subscribers for at least the idle
// timeout, as observed by successive calls. It returns the evicted keys.
func (r *Registry) EvictIdle() []barv1.Key {
	if r.config.IdleTimeout <= 0 {
		return nil
	}

	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []barv1.Key
	for key, u := range r.units {
		if u.hub.Len() > 0 {
			u.idleSince = time.Time{}
			continue
		}
		if u.idleSince.IsZero() {
			u.idleSince = now
			continue
		}
		if now.Sub(u.idleSince) < r.config.IdleTimeout {
			continue
		}

		delete(r.units, key)
		r.draining[key] = u
		u.cancel()
		evicted = append(evicted, key)

		r.logger.Info("Evicted idle aggregation unit",
			logger.Field{Key: "key", Value: key.String()},
			logger.Field{Key: "idleFor", Value: now.Sub(u.idleSince).String()},
		)
	}

	return evicted
}

// RunEvictor calls EvictIdle every evict interval until ctx is done. It
// returns immediately when idle eviction is disabled.
func (r *Registry) RunEvictor(ctx context.Context) error {
	if r.config.IdleTimeout <= 0 || r.config.EvictInterval <= 0 {
		return nil
	}

	ticker := time.NewTicker(r.config.EvictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.EvictIdle()
		}
	}
}

// Close stops every unit and waits for their ingestion tasks, or for ctx.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.units = make(map[barv1.Key]*Unit)
	r.mu.Unlock()

	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
