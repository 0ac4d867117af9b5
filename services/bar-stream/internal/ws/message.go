package ws

import (
	"math"
	"time"

	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
	tickv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/tick-source/v1"
)

const (
	typeSnapshot = "snapshot"
	typeBar      = "bar"
	typeError    = "error"
	typeQuote    = "quote"
)

// WireBar is a bar on the wire; T is the bucket start in unix seconds.
type WireBar struct {
	T int64   `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
}

// SnapshotMessage is the first frame of a stream.
type SnapshotMessage struct {
	Type     string    `json:"type"`
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	Bars     []WireBar `json:"bars"`
}

// BarMessage is a live bar frame.
type BarMessage struct {
	Type     string `json:"type"`
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	WireBar
	Final bool `json:"final"`
}

// ErrorMessage precedes an internal-error close.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// QuoteMessage is one priced tick. T is RFC 3339 UTC at second precision;
// Bid and Ask are null when the tick did not quote them.
type QuoteMessage struct {
	Type   string   `json:"type"`
	T      string   `json:"t"`
	Symbol string   `json:"symbol"`
	Price  float64  `json:"price"`
	Bid    *float64 `json:"bid"`
	Ask    *float64 `json:"ask"`
}

func toWireBar(b barv1.Bar) WireBar {
	return WireBar{
		T: b.BucketStart.Unix(),
		O: b.Open,
		H: b.High,
		L: b.Low,
		C: b.Close,
	}
}

func newSnapshotMessage(s barv1.Snapshot) SnapshotMessage {
	bars := make([]WireBar, 0, len(s.Bars))
	for _, b := range s.Bars {
		bars = append(bars, toWireBar(b))
	}
	return SnapshotMessage{
		Type:     typeSnapshot,
		Symbol:   s.Key.Symbol,
		Interval: s.Key.Interval,
		Bars:     bars,
	}
}

func newBarMessage(u barv1.BarUpdate) BarMessage {
	return BarMessage{
		Type:     typeBar,
		Symbol:   u.Bar.Symbol,
		Interval: u.Bar.Interval,
		WireBar:  toWireBar(u.Bar),
		Final:    u.Final,
	}
}

func newErrorMessage(err error) ErrorMessage {
	return ErrorMessage{Type: typeError, Error: err.Error()}
}

func newQuoteMessage(symbol string, t tickv1.Tick) (QuoteMessage, bool) {
	price, ok := t.Price()
	if !ok {
		return QuoteMessage{}, false
	}
	return QuoteMessage{
		Type:   typeQuote,
		T:      t.Timestamp.UTC().Truncate(time.Second).Format(time.RFC3339),
		Symbol: symbol,
		Price:  price,
		Bid:    quoted(t.Bid),
		Ask:    quoted(t.Ask),
	}, true
}

func quoted(v float64) *float64 {
	if v == 0 {
		return nil
	}
	v = math.Round(v*1e6) / 1e6
	return &v
}
