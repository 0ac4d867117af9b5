package v1

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTick_Price(t *testing.T) {
	testCases := []struct {
		name      string
		tick      Tick
		wantPrice float64
		wantOK    bool
	}{
		{name: "last wins", tick: Tick{Last: 1.5, Bid: 1.0, Ask: 2.0}, wantPrice: 1.5, wantOK: true},
		{name: "mid when last is zero", tick: Tick{Bid: 1.0, Ask: 2.0}, wantPrice: 1.5, wantOK: true},
		{name: "ask only", tick: Tick{Ask: 2.0}, wantPrice: 2.0, wantOK: true},
		{name: "bid only", tick: Tick{Bid: 1.0}, wantPrice: 1.0, wantOK: true},
		{name: "nothing quoted", tick: Tick{}, wantOK: false},
		{name: "rounded to six decimals", tick: Tick{Bid: 1.1234561, Ask: 1.1234571}, wantPrice: 1.123457, wantOK: true},
		{name: "rounds to zero", tick: Tick{Last: 0.0000001}, wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			price, ok := tc.tick.Price()
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.InDelta(t, tc.wantPrice, price, 1e-9)
			}
		})
	}
}
