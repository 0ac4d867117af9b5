package v1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBar_Validate(t *testing.T) {
	base := Bar{Symbol: "EURUSD", Interval: "1m", BucketStart: time.Unix(60, 0), Open: 2, High: 3, Low: 1, Close: 2}

	testCases := []struct {
		name    string
		mutate  func(b *Bar)
		wantErr bool
	}{
		{name: "valid", mutate: func(b *Bar) {}},
		{name: "flat", mutate: func(b *Bar) { b.Open, b.High, b.Low, b.Close = 5, 5, 5, 5 }},
		{name: "empty symbol", mutate: func(b *Bar) { b.Symbol = "" }, wantErr: true},
		{name: "high below low", mutate: func(b *Bar) { b.High = 0.5 }, wantErr: true},
		{name: "close above high", mutate: func(b *Bar) { b.Close = 4 }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := base
			tc.mutate(&b)
			if tc.wantErr {
				assert.Error(t, b.Validate())
			} else {
				assert.NoError(t, b.Validate())
			}
		})
	}
}

func TestBar_Key(t *testing.T) {
	b := Bar{Symbol: "XAUUSD", Interval: "5s"}
	assert.Equal(t, Key{Symbol: "XAUUSD", Interval: "5s"}, b.Key())
	assert.Equal(t, "XAUUSD:5s", b.Key().String())
}
