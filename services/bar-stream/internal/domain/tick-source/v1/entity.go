package v1

import (
	"math"
	"time"
)

// Tick is a single price observation. Zero Last, Bid or Ask means the field is absent.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Last      float64   `json:"last,omitempty"`
	Bid       float64   `json:"bid,omitempty"`
	Ask       float64   `json:"ask,omitempty"`
}

// Price selects the price to aggregate: last if nonzero, else the bid/ask mid,
// else whichever side is quoted. The result is rounded to 6 decimals. ok is
// false when no usable price exists.
func (t Tick) Price() (price float64, ok bool) {
	switch {
	case t.Last != 0:
		price = t.Last
	case t.Bid != 0 && t.Ask != 0:
		price = (t.Bid + t.Ask) / 2
	case t.Ask != 0:
		price = t.Ask
	case t.Bid != 0:
		price = t.Bid
	default:
		return 0, false
	}

	price = math.Round(price*1e6) / 1e6
	return price, price != 0
}
