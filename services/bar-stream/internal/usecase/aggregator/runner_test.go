package aggregator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	mockLogger "github.com/muhammadchandra19/exchange/pkg/logger/mock"
	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
	barMock "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1/mock"
	tickv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/tick-source/v1"
	tickMock "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/tick-source/v1/mock"
	"github.com/muhammadchandra19/exchange/services/bar-stream/pkg/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []barv1.Event
}

func (r *recorder) Broadcast(ev barv1.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return 1
}

func update(bar barv1.Bar, final bool) barv1.Event {
	return barv1.BarUpdate{Bar: bar, Final: final}
}

// feed makes source return ticks in order, then cancel the run.
func feed(source *tickMock.MockTickSource, cancel context.CancelFunc, results ...any) {
	calls := make([]*gomock.Call, 0, len(results)+1)
	for _, res := range results {
		switch v := res.(type) {
		case tickv1.Tick:
			calls = append(calls, source.EXPECT().Next(gomock.Any()).Return(v, nil))
		case error:
			calls = append(calls, source.EXPECT().Next(gomock.Any()).Return(tickv1.Tick{}, v))
		}
	}
	calls = append(calls, source.EXPECT().Next(gomock.Any()).DoAndReturn(func(ctx context.Context) (tickv1.Tick, error) {
		cancel()
		return tickv1.Tick{}, ctx.Err()
	}))
	gomock.InOrder(calls...)
}

func tick(sec int64, last float64) tickv1.Tick {
	return tickv1.Tick{Symbol: "X", Timestamp: unix(sec), Last: last}
}

func TestRunner_Run(t *testing.T) {
	testCases := []struct {
		name     string
		mockFn   func(source *tickMock.MockTickSource, store *barMock.MockRepository, log *mockLogger.MockInterface, cancel context.CancelFunc)
		assertFn func(t *testing.T, events []barv1.Event)
	}{
		{
			name: "finalizes and broadcasts in order",
			mockFn: func(source *tickMock.MockTickSource, store *barMock.MockRepository, log *mockLogger.MockInterface, cancel context.CancelFunc) {
				feed(source, cancel, tick(1000, 10), tick(1002, 12), tick(1006, 9))
				store.EXPECT().Upsert(gomock.Any(), barv1.Bar{Symbol: "X", Interval: "5s", BucketStart: unix(1000), Open: 10, High: 12, Low: 10, Close: 12}).Return(nil)
			},
			assertFn: func(t *testing.T, events []barv1.Event) {
				closed := barv1.Bar{Symbol: "X", Interval: "5s", BucketStart: unix(1000), Open: 10, High: 12, Low: 10, Close: 12}
				assert.Equal(t, []barv1.Event{
					update(flat(1000, 10), false),
					update(closed, false),
					update(closed, true),
					update(flat(1005, 9), false),
				}, events)
			},
		},
		{
			name: "gap bars are persisted in bucket order",
			mockFn: func(source *tickMock.MockTickSource, store *barMock.MockRepository, log *mockLogger.MockInterface, cancel context.CancelFunc) {
				feed(source, cancel, tick(1000, 10), tick(1020, 15))
				gomock.InOrder(
					store.EXPECT().Upsert(gomock.Any(), flat(1000, 10)).Return(nil),
					store.EXPECT().Upsert(gomock.Any(), flat(1005, 10)).Return(nil),
					store.EXPECT().Upsert(gomock.Any(), flat(1010, 10)).Return(nil),
					store.EXPECT().Upsert(gomock.Any(), flat(1015, 10)).Return(nil),
				)
			},
			assertFn: func(t *testing.T, events []barv1.Event) {
				assert.Equal(t, []barv1.Event{
					update(flat(1000, 10), false),
					update(flat(1000, 10), true),
					update(flat(1005, 10), true),
					update(flat(1010, 10), true),
					update(flat(1015, 10), true),
					update(flat(1020, 15), false),
				}, events)
			},
		},
		{
			name: "persist error is logged and the feed continues",
			mockFn: func(source *tickMock.MockTickSource, store *barMock.MockRepository, log *mockLogger.MockInterface, cancel context.CancelFunc) {
				feed(source, cancel, tick(1000, 10), tick(1005, 11), tick(1010, 12))
				store.EXPECT().Upsert(gomock.Any(), flat(1000, 10)).Return(errors.New("connection reset"))
				store.EXPECT().Upsert(gomock.Any(), flat(1005, 11)).Return(nil)
				log.EXPECT().ErrorContext(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())
			},
			assertFn: func(t *testing.T, events []barv1.Event) {
				assert.Len(t, events, 5)
				assert.Equal(t, update(flat(1000, 10), true), events[1])
				assert.Equal(t, update(flat(1010, 12), false), events[4])
			},
		},
		{
			name: "source error retries",
			mockFn: func(source *tickMock.MockTickSource, store *barMock.MockRepository, log *mockLogger.MockInterface, cancel context.CancelFunc) {
				feed(source, cancel, errors.New("broker down"), tick(1000, 10))
				log.EXPECT().ErrorContext(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any())
			},
			assertFn: func(t *testing.T, events []barv1.Event) {
				assert.Equal(t, []barv1.Event{update(flat(1000, 10), false)}, events)
			},
		},
		{
			name: "tick without price is skipped",
			mockFn: func(source *tickMock.MockTickSource, store *barMock.MockRepository, log *mockLogger.MockInterface, cancel context.CancelFunc) {
				feed(source, cancel, tickv1.Tick{Symbol: "X", Timestamp: unix(1000)}, tick(1001, 10))
				log.EXPECT().DebugContext(gomock.Any(), "Skipping tick without price", gomock.Any(), gomock.Any())
			},
			assertFn: func(t *testing.T, events []barv1.Event) {
				assert.Equal(t, []barv1.Event{update(flat(1000, 10), false)}, events)
			},
		},
		{
			name: "late tick is dropped",
			mockFn: func(source *tickMock.MockTickSource, store *barMock.MockRepository, log *mockLogger.MockInterface, cancel context.CancelFunc) {
				feed(source, cancel, tick(1000, 10), tick(1005, 11), tick(1003, 50))
				store.EXPECT().Upsert(gomock.Any(), flat(1000, 10)).Return(nil)
				log.EXPECT().DebugContext(gomock.Any(), "Dropping late tick", gomock.Any(), gomock.Any())
			},
			assertFn: func(t *testing.T, events []barv1.Event) {
				assert.Len(t, events, 3)
				assert.Equal(t, update(flat(1005, 11), false), events[2])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			source := tickMock.NewMockTickSource(ctrl)
			store := barMock.NewMockRepository(ctrl)
			log := mockLogger.NewMockInterface(ctrl)
			tc.mockFn(source, store, log, cancel)

			hub := &recorder{}
			runner := NewRunner(NewMachine("X", interval.Interval5s), source, store, hub, time.Millisecond, nil, log)

			err := runner.Run(ctx)
			require.ErrorIs(t, err, context.Canceled)
			tc.assertFn(t, hub.events)
		})
	}
}

func TestRunner_StepOutcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := tickMock.NewMockTickSource(ctrl)
	log := mockLogger.NewMockInterface(ctrl)
	runner := NewRunner(NewMachine("X", interval.Interval1s), source, barMock.NewMockRepository(ctrl), &recorder{}, time.Second, nil, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	source.EXPECT().Next(gomock.Any()).Return(tickv1.Tick{}, context.Canceled)

	assert.Equal(t, OutcomeStop, runner.step(ctx))
}

func TestRunner_RunStopsDuringBackoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	source := tickMock.NewMockTickSource(ctrl)
	log := mockLogger.NewMockInterface(ctrl)

	source.EXPECT().Next(gomock.Any()).Return(tickv1.Tick{}, errors.New("broker down"))
	log.EXPECT().ErrorContext(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Do(func(context.Context, error, ...logger.Field) { cancel() })

	runner := NewRunner(NewMachine("X", interval.Interval1s), source, barMock.NewMockRepository(ctrl), &recorder{}, time.Hour, nil, log)

	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "continue", OutcomeContinue.String())
	assert.Equal(t, "retry", OutcomeRetry.String())
	assert.Equal(t, "stop", OutcomeStop.String())
}
