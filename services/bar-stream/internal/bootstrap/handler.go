package bootstrap

import (
	"time"

	"github.com/muhammadchandra19/exchange/pkg/httplib/healthcheck"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/ws"
)

const healthTimeout = 2 * time.Second

// Handler holds the HTTP handlers of the service.
type Handler struct {
	WS     *ws.Handler
	Quotes *ws.QuotesHandler
	Health healthcheck.HealthCheck
}

// registerHandler registers the handlers.
func (b *Bootstrap) registerHandler() {
	validator := ws.NewTokenValidator(b.Config.Auth.JWTSecret)

	b.Handler.WS = ws.NewHandler(
		b.Usecase.Registry,
		validator,
		ws.Config{
			DefaultBackfill: b.Config.Registry.DefaultBackfill,
			MaxBackfill:     b.Config.Registry.MaxBackfill,
		},
		b.Logger,
	)
	b.Handler.Quotes = ws.NewQuotesHandler(b.Usecase.Sources, validator, b.Logger)

	checks := map[string]healthcheck.Check{}
	if b.Postgres != nil {
		checks["postgres"] = b.Postgres.Ping
	}
	if b.QuestDB != nil {
		checks["questdb"] = b.QuestDB.Ping
	}
	if b.Redis != nil {
		checks["redis"] = b.Redis.Ping
	}

	b.Handler.Health = healthcheck.HealthCheck{
		Checks:  checks,
		Timeout: healthTimeout,
	}
}
