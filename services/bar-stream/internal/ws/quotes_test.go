package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/websocket"
	"github.com/muhammadchandra19/exchange/pkg/errors"
	mockLogger "github.com/muhammadchandra19/exchange/pkg/logger/mock"
	tickv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/tick-source/v1"
	tickMock "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/tick-source/v1/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuotesServer(t *testing.T, ctrl *gomock.Controller, sources *tickMock.MockSourceFactory) *httptest.Server {
	t.Helper()

	log := mockLogger.NewMockInterface(ctrl)
	log.EXPECT().InfoContext(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().WarnContext(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().DebugContext(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().ErrorContext(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	handler := NewQuotesHandler(sources, NewTokenValidator("secret"), log)
	handler.retryBackoff = time.Millisecond

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func dialQuotes(t *testing.T, srv *httptest.Server, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + QuotesPath + "?" + query
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestQuotesHandler_Stream(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sources := tickMock.NewMockSourceFactory(ctrl)
	source := tickMock.NewMockTickSource(ctrl)
	srv := newQuotesServer(t, ctrl, sources)

	ts := time.Date(2025, 8, 1, 9, 30, 15, 250_000_000, time.UTC)
	closed := make(chan struct{})

	sources.EXPECT().Open(gomock.Any(), "EURUSD").Return(source, nil)
	gomock.InOrder(
		source.EXPECT().Next(gomock.Any()).Return(tickv1.Tick{Symbol: "EURUSD", Timestamp: ts, Bid: 1.1, Ask: 1.1002}, nil),
		source.EXPECT().Next(gomock.Any()).Return(tickv1.Tick{Symbol: "EURUSD", Timestamp: ts}, nil),
		source.EXPECT().Next(gomock.Any()).Return(tickv1.Tick{}, errors.NewErrorDetails("broker unavailable", string(errors.BarStreamSourceError), "kafka")),
		source.EXPECT().Next(gomock.Any()).Return(tickv1.Tick{Symbol: "EURUSD", Timestamp: ts.Add(time.Second), Last: 1.2}, nil),
		source.EXPECT().Next(gomock.Any()).DoAndReturn(func(ctx context.Context) (tickv1.Tick, error) {
			<-ctx.Done()
			return tickv1.Tick{}, ctx.Err()
		}),
	)
	source.EXPECT().Close().DoAndReturn(func() error {
		close(closed)
		return nil
	})

	conn, _, err := dialQuotes(t, srv, "symbol=EURUSD&token="+validToken(t))
	require.NoError(t, err)

	quote := readJSON(t, conn)
	assert.Equal(t, "quote", quote["type"])
	assert.Equal(t, "2025-08-01T09:30:15Z", quote["t"])
	assert.Equal(t, "EURUSD", quote["symbol"])
	assert.InDelta(t, 1.1001, quote["price"], 1e-9)
	assert.Equal(t, 1.1, quote["bid"])
	assert.Equal(t, 1.1002, quote["ask"])

	last := readJSON(t, conn)
	assert.Equal(t, "2025-08-01T09:30:16Z", last["t"])
	assert.Equal(t, 1.2, last["price"])
	assert.Contains(t, last, "bid")
	assert.Nil(t, last["bid"])
	assert.Nil(t, last["ask"])

	require.NoError(t, conn.Close())
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("tick source was not closed after the client left")
	}
}

func TestQuotesHandler_OpenError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sources := tickMock.NewMockSourceFactory(ctrl)
	srv := newQuotesServer(t, ctrl, sources)

	sources.EXPECT().Open(gomock.Any(), "EURUSD").
		Return(nil, errors.NewErrorDetails("kafka brokers are not configured", string(errors.BarStreamConfigError), "KAFKA_BROKERS"))

	conn, _, err := dialQuotes(t, srv, "symbol=EURUSD&token="+validToken(t))
	require.NoError(t, err)
	defer conn.Close()

	msg := readJSON(t, conn)
	assert.Equal(t, "error", msg["type"])
	assert.Equal(t, "kafka brokers are not configured", msg["error"])
	assert.Equal(t, websocket.CloseInternalServerErr, readClose(t, conn))
}

func TestQuotesHandler_InvalidToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	srv := newQuotesServer(t, ctrl, tickMock.NewMockSourceFactory(ctrl))

	conn, _, err := dialQuotes(t, srv, "symbol=EURUSD&token=garbage")
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, websocket.ClosePolicyViolation, readClose(t, conn))
}

func TestQuotesHandler_MissingSymbol(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	srv := newQuotesServer(t, ctrl, tickMock.NewMockSourceFactory(ctrl))

	_, resp, err := dialQuotes(t, srv, "token="+validToken(t))
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
