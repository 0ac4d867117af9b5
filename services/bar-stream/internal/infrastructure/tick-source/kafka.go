package ticksource

import (
	"context"
	"encoding/json"

	"github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	tickv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/tick-source/v1"
	"github.com/segmentio/kafka-go"
)

// MessageReader is the subset of *kafka.Reader the kafka source needs.
//
//go:generate mockgen -source kafka.go -destination=mock/kafka_mock.go -package=mock
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// MessageWriter is the subset of *kafka.Writer the kafka publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSource reads JSON ticks from a single-partition topic.
type KafkaSource struct {
	symbol string
	reader MessageReader
	logger logger.Interface
}

var _ tickv1.TickSource = (*KafkaSource)(nil)

// NewKafkaReader creates a reader positioned at the end of the symbol topic.
func NewKafkaReader(config KafkaConfig, symbol string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     config.Brokers,
		Topic:       config.TopicPrefix + symbol,
		Partition:   0,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
}

// NewKafkaSource wraps reader as a TickSource for symbol.
func NewKafkaSource(symbol string, reader MessageReader, log logger.Interface) *KafkaSource {
	return &KafkaSource{
		symbol: symbol,
		reader: reader,
		logger: log,
	}
}

// Next blocks until the next message and decodes it.
func (s *KafkaSource) Next(ctx context.Context) (tickv1.Tick, error) {
	msg, err := s.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return tickv1.Tick{}, ctx.Err()
		}
		return tickv1.Tick{}, errors.NewErrorDetails(err.Error(), string(errors.BarStreamSourceError), "kafka")
	}

	var tick tickv1.Tick
	if err := json.Unmarshal(msg.Value, &tick); err != nil {
		s.logger.Error(err,
			logger.Field{Key: "operation", Value: "UnmarshalTick"},
			logger.Field{Key: "offset", Value: msg.Offset},
		)
		return tickv1.Tick{}, errors.NewErrorDetails(err.Error(), string(errors.BarStreamSourceError), "payload")
	}
	if tick.Symbol == "" {
		tick.Symbol = s.symbol
	}
	if tick.Timestamp.IsZero() {
		tick.Timestamp = msg.Time
	}
	tick.Timestamp = tick.Timestamp.UTC()

	return tick, nil
}

// Close closes the underlying reader.
func (s *KafkaSource) Close() error {
	return s.reader.Close()
}
