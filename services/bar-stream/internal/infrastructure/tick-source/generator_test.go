package ticksource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorSource_Next(t *testing.T) {
	g := NewGeneratorSource("EURUSD", GeneratorConfig{
		Period:     time.Millisecond,
		StartPrice: 100,
		Volatility: 0.001,
		Spread:     0.0002,
	}, 42)
	defer g.Close()

	var prev time.Time
	for range 20 {
		tick, err := g.Next(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "EURUSD", tick.Symbol)
		assert.Less(t, tick.Bid, tick.Ask)
		assert.InDelta(t, 100, tick.Last, 5)
		assert.False(t, tick.Timestamp.Before(prev))
		prev = tick.Timestamp
	}
}

func TestGeneratorSource_NextCancelled(t *testing.T) {
	g := NewGeneratorSource("EURUSD", GeneratorConfig{Period: time.Hour, StartPrice: 1}, 1)
	defer g.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
