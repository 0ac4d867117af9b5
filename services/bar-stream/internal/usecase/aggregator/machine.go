package aggregator

import (
	"time"

	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
	"github.com/muhammadchandra19/exchange/services/bar-stream/pkg/interval"
)

// Step is the result of applying one tick.
type Step struct {
	// Finalized holds the closed bars in bucket order, gap bars included.
	Finalized []barv1.Bar
	// Gaps is how many of Finalized were synthesized.
	Gaps int
	// Update is the open bar after the tick, nil when the tick was late.
	Update *barv1.Bar
	// Late is set when the tick belonged to a bucket before the open one.
	Late bool
}

// Machine holds the in-progress bar of one aggregation unit. It is not safe
// for concurrent use; one ingestion loop owns it.
type Machine struct {
	key      barv1.Key
	interval interval.Interval
	open     *barv1.Bar
}

// NewMachine creates an empty machine for symbol at iv.
func NewMachine(symbol string, iv interval.Interval) *Machine {
	return &Machine{
		key:      barv1.Key{Symbol: symbol, Interval: iv.Name},
		interval: iv,
	}
}

// Apply folds one priced tick into the machine.
func (m *Machine) Apply(ts time.Time, price float64) Step {
	bucket := m.interval.BucketStart(ts)

	if m.open == nil {
		m.open = m.newBar(bucket, price)
		return Step{Update: m.snapshot()}
	}

	switch {
	case bucket.Equal(m.open.BucketStart):
		m.open.Close = price
		m.open.High = max(m.open.High, price)
		m.open.Low = min(m.open.Low, price)
		return Step{Update: m.snapshot()}

	case bucket.Before(m.open.BucketStart):
		return Step{Late: true}
	}

	step := Step{Finalized: []barv1.Bar{*m.open}}
	last := m.open.Close
	for next := m.interval.Next(m.open.BucketStart); next.Before(bucket); next = m.interval.Next(next) {
		step.Finalized = append(step.Finalized, *m.newBar(next, last))
		step.Gaps++
	}

	m.open = m.newBar(bucket, price)
	step.Update = m.snapshot()

	return step
}

func (m *Machine) newBar(bucket time.Time, price float64) *barv1.Bar {
	return &barv1.Bar{
		Symbol:      m.key.Symbol,
		Interval:    m.key.Interval,
		BucketStart: bucket,
		Open:        price,
		High:        price,
		Low:         price,
		Close:       price,
	}
}

func (m *Machine) snapshot() *barv1.Bar {
	b := *m.open
	return &b
}
