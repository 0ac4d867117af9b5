package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/muhammadchandra19/exchange/pkg/errors"
	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = barv1.Key{Symbol: "EURUSD", Interval: "1s"}

func event(sec int64) barv1.Event {
	return barv1.BarUpdate{Bar: barv1.Bar{Symbol: "EURUSD", Interval: "1s", BucketStart: time.Unix(sec, 0).UTC(), Open: 1, High: 1, Low: 1, Close: 1}}
}

func drain(t *testing.T, sub *Subscription) []barv1.Event {
	t.Helper()
	var events []barv1.Event
	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestHub_SlowSubscriberIsDropped(t *testing.T) {
	h := New(key, 4, nil)

	slow := h.Subscribe()
	fast := h.Subscribe()
	require.Equal(t, 2, h.Len())

	var received []barv1.Event
	for i := int64(0); i < 10; i++ {
		delivered := h.Broadcast(event(i))
		received = append(received, drain(t, fast)...)

		if i < 4 {
			assert.Equal(t, 2, delivered)
		} else {
			assert.Equal(t, 1, delivered)
		}
	}

	assert.Equal(t, 1, h.Len())
	assert.Len(t, received, 10)
	for i, ev := range received {
		assert.Equal(t, event(int64(i)), ev)
	}

	// The slow subscriber keeps what was buffered, then sees the close.
	assert.Len(t, drain(t, slow), 4)
	_, ok := <-slow.C
	assert.False(t, ok)
	assert.True(t, errors.ErrorCodeEquals(slow.Err(), string(errors.BarStreamSubscriberOverflow)))
}

func TestHub_Unsubscribe(t *testing.T) {
	h := New(key, 1, nil)
	sub := h.Subscribe()

	assert.True(t, h.Unsubscribe(sub.ID))
	assert.False(t, h.Unsubscribe(sub.ID))
	assert.Equal(t, 0, h.Len())

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.NoError(t, sub.Err())
	assert.Equal(t, 0, h.Broadcast(event(1)))
}

func TestHub_UnsubscribeAfterDrop(t *testing.T) {
	h := New(key, 1, nil)
	sub := h.Subscribe()

	h.Broadcast(event(1))
	h.Broadcast(event(2))

	assert.False(t, h.Unsubscribe(sub.ID))
}

func TestHub_Close(t *testing.T) {
	h := New(key, 8, nil)
	sub := h.Subscribe()

	h.Close()
	h.Close()

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.True(t, errors.ErrorCodeEquals(sub.Err(), string(errors.BarStreamUnitClosed)))

	late := h.Subscribe()
	_, ok = <-late.C
	assert.False(t, ok)
	assert.Equal(t, 0, h.Len())
}

func TestHub_ConcurrentSubscribeAndBroadcast(t *testing.T) {
	h := New(key, 1024, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := h.Subscribe()
			h.Unsubscribe(sub.ID)
		}()
	}
	for i := int64(0); i < 100; i++ {
		h.Broadcast(event(i))
	}
	wg.Wait()

	assert.Equal(t, 0, h.Len())
}
