package v1

import (
	"fmt"
	"time"
)

// Key identifies one aggregation unit.
type Key struct {
	Symbol   string
	Interval string
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return k.Symbol + ":" + k.Interval
}

// Bar is one OHLC bar. Symbol, Interval and BucketStart form its identity.
type Bar struct {
	Symbol      string
	Interval    string
	BucketStart time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
}

// Key returns the aggregation key the bar belongs to.
func (b Bar) Key() Key {
	return Key{Symbol: b.Symbol, Interval: b.Interval}
}

// Validate checks the OHLC relationship.
func (b Bar) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("bar symbol is empty")
	}
	if b.High < b.Low {
		return fmt.Errorf("bar high %v below low %v", b.High, b.Low)
	}
	if b.Open > b.High || b.Open < b.Low || b.Close > b.High || b.Close < b.Low {
		return fmt.Errorf("bar open/close outside high/low range")
	}
	return nil
}
