package ticksource

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/redis"
	tickv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/tick-source/v1"
	v9 "github.com/redis/go-redis/v9"
)

// Stream entry fields.
const (
	FieldTimestamp = "timestamp"
	FieldLast      = "last"
	FieldBid       = "bid"
	FieldAsk       = "ask"
)

// StreamKey is the unprefixed stream name for symbol.
func StreamKey(symbol string) string {
	return "ticks:" + symbol
}

// RedisSource reads ticks from a redis stream. Entries are buffered between
// reads and the last delivered id is remembered, so no entry is emitted twice.
type RedisSource struct {
	symbol  string
	stream  string
	client  redis.Client
	config  RedisConfig
	lastID  string
	pending []v9.XMessage
	logger  logger.Interface
}

var _ tickv1.TickSource = (*RedisSource)(nil)

// NewRedisSource creates a source that only sees entries added after it opens.
func NewRedisSource(symbol string, client redis.Client, config RedisConfig, log logger.Interface) *RedisSource {
	return &RedisSource{
		symbol: symbol,
		stream: client.Key(StreamKey(symbol)),
		client: client,
		config: config,
		lastID: "$",
		logger: log,
	}
}

// Next returns the next stream entry, blocking for at most the configured
// window per XREAD round.
func (s *RedisSource) Next(ctx context.Context) (tickv1.Tick, error) {
	for len(s.pending) == 0 {
		if err := ctx.Err(); err != nil {
			return tickv1.Tick{}, err
		}

		streams, err := s.client.XRead(ctx, &v9.XReadArgs{
			Streams: []string{s.stream, s.lastID},
			Count:   s.config.Count,
			Block:   s.config.Block,
		})
		if err != nil {
			if ctx.Err() != nil {
				return tickv1.Tick{}, ctx.Err()
			}
			return tickv1.Tick{}, errors.NewErrorDetails(err.Error(), string(errors.BarStreamSourceError), "redis")
		}

		for _, stream := range streams {
			s.pending = append(s.pending, stream.Messages...)
		}
	}

	msg := s.pending[0]
	s.pending = s.pending[1:]
	s.lastID = msg.ID

	tick, err := decodeStreamTick(s.symbol, msg)
	if err != nil {
		s.logger.Error(err,
			logger.Field{Key: "operation", Value: "DecodeStreamTick"},
			logger.Field{Key: "id", Value: msg.ID},
		)
		return tickv1.Tick{}, errors.NewErrorDetails(err.Error(), string(errors.BarStreamSourceError), "payload")
	}

	return tick, nil
}

// Close is a no-op; the redis client is shared by every source.
func (s *RedisSource) Close() error {
	return nil
}

// EncodeStreamTick renders tick as stream entry values.
func EncodeStreamTick(tick tickv1.Tick) map[string]any {
	values := map[string]any{
		FieldTimestamp: tick.Timestamp.UnixMilli(),
	}
	if tick.Last != 0 {
		values[FieldLast] = tick.Last
	}
	if tick.Bid != 0 {
		values[FieldBid] = tick.Bid
	}
	if tick.Ask != 0 {
		values[FieldAsk] = tick.Ask
	}
	return values
}

func decodeStreamTick(symbol string, msg v9.XMessage) (tickv1.Tick, error) {
	tick := tickv1.Tick{Symbol: symbol}

	raw, ok := msg.Values[FieldTimestamp]
	if !ok {
		return tick, fmt.Errorf("entry %s has no %s", msg.ID, FieldTimestamp)
	}
	ms, err := strconv.ParseInt(fmt.Sprint(raw), 10, 64)
	if err != nil {
		return tick, fmt.Errorf("entry %s: %w", msg.ID, err)
	}
	tick.Timestamp = time.UnixMilli(ms).UTC()

	for field, dst := range map[string]*float64{FieldLast: &tick.Last, FieldBid: &tick.Bid, FieldAsk: &tick.Ask} {
		raw, ok := msg.Values[field]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(fmt.Sprint(raw), 64)
		if err != nil {
			return tick, fmt.Errorf("entry %s field %s: %w", msg.ID, field, err)
		}
		*dst = v
	}

	return tick, nil
}
