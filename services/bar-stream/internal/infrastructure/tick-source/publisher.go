package ticksource

import (
	"context"
	"encoding/json"

	"github.com/muhammadchandra19/exchange/pkg/redis"
	tickv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/tick-source/v1"
	"github.com/segmentio/kafka-go"
	v9 "github.com/redis/go-redis/v9"
)

// Publisher writes ticks where the matching TickSource reads them.
type Publisher interface {
	Publish(ctx context.Context, tick tickv1.Tick) error
	Close() error
}

// KafkaPublisher writes JSON ticks to the symbol topic.
type KafkaPublisher struct {
	writer      MessageWriter
	topicPrefix string
}

var _ Publisher = (*KafkaPublisher)(nil)

// NewKafkaWriter creates a writer that takes the topic from each message.
func NewKafkaWriter(config KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaPublisher creates a KafkaPublisher.
func NewKafkaPublisher(writer MessageWriter, config KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{
		writer:      writer,
		topicPrefix: config.TopicPrefix,
	}
}

// Publish writes tick to its symbol topic.
func (p *KafkaPublisher) Publish(ctx context.Context, tick tickv1.Tick) error {
	value, err := json.Marshal(tick)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topicPrefix + tick.Symbol,
		Key:   []byte(tick.Symbol),
		Value: value,
		Time:  tick.Timestamp,
	})
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// RedisPublisher appends ticks to the symbol stream.
type RedisPublisher struct {
	client redis.Client
	maxLen int64
}

var _ Publisher = (*RedisPublisher)(nil)

// NewRedisPublisher creates a RedisPublisher. Streams are trimmed to about
// maxLen entries when maxLen is positive.
func NewRedisPublisher(client redis.Client, maxLen int64) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		maxLen: maxLen,
	}
}

// Publish adds tick to its symbol stream.
func (p *RedisPublisher) Publish(ctx context.Context, tick tickv1.Tick) error {
	args := &v9.XAddArgs{
		Stream: p.client.Key(StreamKey(tick.Symbol)),
		Values: EncodeStreamTick(tick),
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	_, err := p.client.XAdd(ctx, args)
	return err
}

// Close disconnects the client.
func (p *RedisPublisher) Close() error {
	return p.client.Disconnect(context.Background())
}
