package hub

import (
	"sync"

	"github.com/muhammadchandra19/exchange/pkg/errors"
	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/metrics"
	"github.com/oklog/ulid/v2"
)

var (
	// ErrSubscriberOverflow is the reason of a subscription dropped for a full buffer.
	ErrSubscriberOverflow = errors.NewErrorDetails("subscriber could not keep up", string(errors.BarStreamSubscriberOverflow), "subscriber")
	// ErrClosed is the reason of a subscription ended by Close.
	ErrClosed = errors.NewErrorDetails("aggregation unit stopped", string(errors.BarStreamUnitClosed), "unit")
)

// Subscription is one registered subscriber. C is closed by the hub when the
// subscriber is dropped or the hub closes; Err then reports why.
type Subscription struct {
	ID string
	C  <-chan barv1.Event

	ch  chan barv1.Event
	err error
}

// Err returns the reason C was closed. It is only meaningful after C is closed,
// and nil after Unsubscribe.
func (s *Subscription) Err() error {
	return s.err
}

// Hub fans events of one aggregation unit out to its subscribers.
type Hub struct {
	key     barv1.Key
	buffer  int
	metrics *metrics.Metrics

	mu     sync.Mutex
	subs   map[string]*Subscription
	closed bool
}

// New creates a hub whose subscriber channels hold buffer events.
func New(key barv1.Key, buffer int, m *metrics.Metrics) *Hub {
	return &Hub{
		key:     key,
		buffer:  buffer,
		metrics: m,
		subs:    make(map[string]*Subscription),
	}
}

// Subscribe registers a new subscriber. On a closed hub the returned
// subscription is already closed with ErrClosed.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan barv1.Event, h.buffer)
	sub := &Subscription{
		ID: ulid.Make().String(),
		C:  ch,
		ch: ch,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub.err = ErrClosed
		close(ch)
		return sub
	}

	h.subs[sub.ID] = sub
	h.metrics.Subscribers(h.key.Symbol, h.key.Interval, len(h.subs))

	return sub
}

// Unsubscribe removes the subscriber and closes its channel. It reports
// whether the subscriber was still registered.
func (h *Hub) Unsubscribe(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[id]
	if !ok {
		return false
	}
	delete(h.subs, id)
	close(sub.ch)
	h.metrics.Subscribers(h.key.Symbol, h.key.Interval, len(h.subs))

	return true
}

// Broadcast offers ev to every subscriber without blocking. Subscribers whose
// buffer is full are removed and their channel closed with ErrSubscriberOverflow.
// It returns the number of subscribers that received ev.
func (h *Hub) Broadcast(ev barv1.Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered, dropped := 0, 0
	for id, sub := range h.subs {
		select {
		case sub.ch <- ev:
			delivered++
		default:
			delete(h.subs, id)
			sub.err = ErrSubscriberOverflow
			close(sub.ch)
			dropped++
		}
	}

	if dropped > 0 {
		h.metrics.DroppedSubscribers(h.key.Symbol, h.key.Interval, dropped)
		h.metrics.Subscribers(h.key.Symbol, h.key.Interval, len(h.subs))
	}

	return delivered
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription with ErrClosed. Later Subscribe calls return
// closed subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for id, sub := range h.subs {
		delete(h.subs, id)
		sub.err = ErrClosed
		close(sub.ch)
	}
}
