package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/util"
	tickv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/tick-source/v1"
)

// QuotesPath is where the QuotesHandler is mounted.
const QuotesPath = "/ws/quotes"

// QuotesHandler streams the raw priced ticks of one symbol, without
// aggregation or backfill. Every connection reads its own tick source.
type QuotesHandler struct {
	sources      tickv1.SourceFactory
	validator    *TokenValidator
	upgrader     websocket.Upgrader
	retryBackoff time.Duration
	logger       logger.Interface
}

// NewQuotesHandler creates a QuotesHandler.
func NewQuotesHandler(sources tickv1.SourceFactory, validator *TokenValidator, log logger.Interface) *QuotesHandler {
	return &QuotesHandler{
		sources:   sources,
		validator: validator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		retryBackoff: time.Second,
		logger:       log,
	}
}

// ServeHTTP handles GET /ws/quotes?symbol=&token=.
func (h *QuotesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	symbol := query.Get("symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	ctx := util.WithRequestID(context.Background(), r.Header.Get("X-Request-ID"))
	ctx = util.WithClientIP(ctx, r.RemoteAddr)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, err, logger.Field{Key: "operation", Value: "Upgrade"})
		return
	}
	defer conn.Close()

	if _, err := h.validator.Validate(query.Get("token")); err != nil {
		h.logger.WarnContext(ctx, "Rejected websocket token", logger.Field{Key: "reason", Value: err.Error()})
		closeWith(conn, websocket.ClosePolicyViolation, "invalid token")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go readPump(conn, cancel)

	source, err := h.sources.Open(ctx, symbol)
	if err != nil {
		h.logger.ErrorContext(ctx, err,
			logger.Field{Key: "operation", Value: "OpenSource"},
			logger.Field{Key: "symbol", Value: symbol},
		)
		fail(conn, err)
		return
	}

	h.logger.InfoContext(ctx, "Quote stream opened", logger.Field{Key: "symbol", Value: symbol})

	ticks := make(chan tickv1.Tick)
	go h.pump(ctx, symbol, source, ticks)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case tick := <-ticks:
			msg, ok := newQuoteMessage(symbol, tick)
			if !ok {
				h.logger.DebugContext(ctx, "Skipping tick without price",
					logger.Field{Key: "symbol", Value: symbol},
					logger.Field{Key: "timestamp", Value: tick.Timestamp},
				)
				continue
			}
			if err := writeJSON(conn, msg); err != nil {
				h.logger.DebugContext(ctx, "Websocket write failed", logger.Field{Key: "error", Value: err.Error()})
				return
			}

		case <-ticker.C:
			if err := ping(conn); err != nil {
				return
			}
		}
	}
}

// pump reads the source until ctx is done, then closes it. Source errors are
// transient and retried after a pause.
func (h *QuotesHandler) pump(ctx context.Context, symbol string, source tickv1.TickSource, out chan<- tickv1.Tick) {
	defer func() {
		if err := source.Close(); err != nil {
			h.logger.ErrorContext(ctx, err, logger.Field{Key: "operation", Value: "CloseSource"})
		}
	}()

	for {
		tick, err := source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			h.logger.ErrorContext(ctx, err,
				logger.Field{Key: "operation", Value: "NextTick"},
				logger.Field{Key: "symbol", Value: symbol},
			)
			select {
			case <-time.After(h.retryBackoff):
				continue
			case <-ctx.Done():
				return
			}
		}

		select {
		case out <- tick:
		case <-ctx.Done():
			return
		}
	}
}
