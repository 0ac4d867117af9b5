package history

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
)

const (
	historyPath  = "/history"
	apiKeyHeader = "X-API-Key"
)

type historyBar struct {
	T int64   `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
}

type historyResponse struct {
	Bars []historyBar `json:"bars"`
}

// Provider fetches historical bars over HTTP.
type Provider struct {
	client    *resty.Client
	config    Config
	intervals map[string]struct{}
	logger    logger.Interface
}

var _ barv1.HistoryProvider = (*Provider)(nil)

// NewProvider creates a Provider. A missing base URL is reported on first fetch,
// not here, so the service can start without upstream history.
func NewProvider(config Config, log logger.Interface) *Provider {
	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetRetryCount(config.RetryCount).
		SetHeader("Accept", "application/json")

	if config.APIKey != "" {
		client.SetHeader(apiKeyHeader, config.APIKey)
	}

	intervals := make(map[string]struct{}, len(config.Intervals))
	for _, name := range config.Intervals {
		intervals[name] = struct{}{}
	}

	return &Provider{
		client:    client,
		config:    config,
		intervals: intervals,
		logger:    log,
	}
}

// Supports reports whether upstream history is enabled for interval.
func (p *Provider) Supports(interval string) bool {
	if !p.config.Enabled {
		return false
	}
	_, ok := p.intervals[interval]
	return ok
}

// FetchHistory returns up to limit bars for the key as served upstream.
func (p *Provider) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]barv1.Bar, error) {
	if p.config.BaseURL == "" {
		return nil, errors.NewErrorDetails("history base url is not configured", string(errors.BarStreamConfigError), "HISTORY_BASE_URL")
	}
	if limit <= 0 {
		return nil, nil
	}

	var body historyResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":   symbol,
			"interval": interval,
			"limit":    strconv.Itoa(limit),
		}).
		SetResult(&body).
		Get(historyPath)
	if err != nil {
		return nil, errors.TracerFromError(err)
	}
	if resp.IsError() {
		return nil, errors.NewErrorDetails(
			fmt.Sprintf("history request failed with status %d", resp.StatusCode()),
			string(errors.BarStreamHistoryError),
			"status",
		)
	}

	bars := make([]barv1.Bar, 0, len(body.Bars))
	for _, hb := range body.Bars {
		bars = append(bars, barv1.Bar{
			Symbol:      symbol,
			Interval:    interval,
			BucketStart: time.Unix(hb.T, 0).UTC(),
			Open:        hb.O,
			High:        hb.H,
			Low:         hb.L,
			Close:       hb.C,
		})
	}

	p.logger.DebugContext(ctx, "Fetched upstream history",
		logger.Field{Key: "symbol", Value: symbol},
		logger.Field{Key: "interval", Value: interval},
		logger.Field{Key: "count", Value: len(bars)},
	)

	return bars, nil
}
