package ws

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/util"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar"
	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
	"github.com/muhammadchandra19/exchange/services/bar-stream/pkg/interval"
)

const (
	// Path is where the handler is mounted.
	Path = "/ws/bars"

	defaultInterval = "1s"
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageSize  = 512
)

// Config bounds the backfill a client may request.
type Config struct {
	DefaultBackfill int
	MaxBackfill     int
}

// Handler serves bar streams over websocket.
type Handler struct {
	usecase   bar.Usecase
	validator *TokenValidator
	config    Config
	upgrader  websocket.Upgrader
	logger    logger.Interface
}

// NewHandler creates a Handler.
func NewHandler(usecase bar.Usecase, validator *TokenValidator, config Config, log logger.Interface) *Handler {
	return &Handler{
		usecase:   usecase,
		validator: validator,
		config:    config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: log,
	}
}

// ServeHTTP handles GET /ws/bars?symbol=&interval=&backfill=&token=.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	symbol := query.Get("symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	intervalName := query.Get("interval")
	if intervalName == "" {
		intervalName = defaultInterval
	}

	depth := h.config.DefaultBackfill
	if raw := query.Get("backfill"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "backfill must be an integer", http.StatusBadRequest)
			return
		}
		depth = n
	}
	depth = max(0, min(depth, h.config.MaxBackfill))

	ctx := util.WithRequestID(context.Background(), r.Header.Get("X-Request-ID"))
	ctx = util.WithClientIP(ctx, r.RemoteAddr)

	if !interval.IsValid(intervalName) {
		h.logger.WarnContext(ctx, "Coercing unknown interval",
			logger.Field{Key: "interval", Value: intervalName},
			logger.Field{Key: "coercedTo", Value: interval.Smallest.Name},
			logger.Field{Key: "supported", Value: interval.Names()},
		)
	}

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

	events, err := h.usecase.Subscribe(ctx, symbol, intervalName, depth)
	if err != nil {
		h.logger.ErrorContext(ctx, err,
			logger.Field{Key: "operation", Value: "Subscribe"},
			logger.Field{Key: "symbol", Value: symbol},
			logger.Field{Key: "interval", Value: intervalName},
		)
		fail(conn, err)
		return
	}

	h.logger.InfoContext(ctx, "Bar stream opened",
		logger.Field{Key: "symbol", Value: symbol},
		logger.Field{Key: "interval", Value: intervalName},
		logger.Field{Key: "backfill", Value: depth},
	)

	h.writePump(ctx, conn, events)
}

// readPump drains client frames so control frames are processed, and cancels
// the stream once the client goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writePump(ctx context.Context, conn *websocket.Conn, events <-chan barv1.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				closeWith(conn, websocket.CloseNormalClosure, "")
				return
			}

			var err error
			switch e := ev.(type) {
			case barv1.Snapshot:
				err = writeJSON(conn, newSnapshotMessage(e))
			case barv1.BarUpdate:
				err = writeJSON(conn, newBarMessage(e))
			case barv1.Terminal:
				fail(conn, e.Err)
				return
			}
			if err != nil {
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

func ping(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.PingMessage, nil)
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// fail sends an error frame, then closes with 1011.
func fail(conn *websocket.Conn, err error) {
	_ = writeJSON(conn, newErrorMessage(err))
	closeWith(conn, websocket.CloseInternalServerErr, "internal error")
}

func closeWith(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
}
