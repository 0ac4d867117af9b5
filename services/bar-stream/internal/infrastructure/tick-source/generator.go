package ticksource

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	tickv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/tick-source/v1"
)

// GeneratorSource emits a geometric random walk, one tick per period.
type GeneratorSource struct {
	symbol string
	config GeneratorConfig
	rnd    *rand.Rand
	price  float64
	now    func() time.Time
	timer  *time.Ticker
}

var _ tickv1.TickSource = (*GeneratorSource)(nil)

// NewGeneratorSource creates a generator seeded from seed.
func NewGeneratorSource(symbol string, config GeneratorConfig, seed uint64) *GeneratorSource {
	return &GeneratorSource{
		symbol: symbol,
		config: config,
		rnd:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		price:  config.StartPrice,
		now:    time.Now,
		timer:  time.NewTicker(config.Period),
	}
}

// Next waits one period and returns the next step of the walk.
func (g *GeneratorSource) Next(ctx context.Context) (tickv1.Tick, error) {
	select {
	case <-ctx.Done():
		return tickv1.Tick{}, ctx.Err()
	case <-g.timer.C:
	}

	g.price *= math.Exp(g.rnd.NormFloat64() * g.config.Volatility)
	half := g.price * g.config.Spread / 2

	return tickv1.Tick{
		Symbol:    g.symbol,
		Timestamp: g.now().UTC(),
		Last:      round6(g.price),
		Bid:       round6(g.price - half),
		Ask:       round6(g.price + half),
	}, nil
}

// Close stops the period timer.
func (g *GeneratorSource) Close() error {
	g.timer.Stop()
	return nil
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
