package ticksource

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/muhammadchandra19/exchange/pkg/errors"
	mockLogger "github.com/muhammadchandra19/exchange/pkg/logger/mock"
	redis_mock "github.com/muhammadchandra19/exchange/pkg/redis/mock"
	tickv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/tick-source/v1"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/infrastructure/tick-source/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_Open(t *testing.T) {
	testCases := []struct {
		name     string
		factory  func(ctrl *gomock.Controller, log *mockLogger.MockInterface) *Factory
		assertFn func(t *testing.T, source tickv1.TickSource, err error)
	}{
		{
			name: "kafka",
			factory: func(ctrl *gomock.Controller, log *mockLogger.MockInterface) *Factory {
				reader := mock.NewMockMessageReader(ctrl)
				return NewFactory(DriverKafka, log,
					WithKafka(KafkaConfig{Brokers: []string{"localhost:9092"}, TopicPrefix: "ticks."}),
					WithReaderFunc(func(config KafkaConfig, symbol string) MessageReader {
						assert.Equal(t, "EURUSD", symbol)
						return reader
					}),
				)
			},
			assertFn: func(t *testing.T, source tickv1.TickSource, err error) {
				require.NoError(t, err)
				assert.IsType(t, &KafkaSource{}, source)
			},
		},
		{
			name: "kafka without brokers",
			factory: func(ctrl *gomock.Controller, log *mockLogger.MockInterface) *Factory {
				return NewFactory(DriverKafka, log)
			},
			assertFn: func(t *testing.T, source tickv1.TickSource, err error) {
				assert.True(t, errors.ErrorCodeEquals(err, string(errors.BarStreamConfigError)))
			},
		},
		{
			name: "redis",
			factory: func(ctrl *gomock.Controller, log *mockLogger.MockInterface) *Factory {
				client := redis_mock.NewMockClient(ctrl)
				client.EXPECT().Key("ticks:EURUSD").Return("bars:ticks:EURUSD")
				return NewFactory(DriverRedis, log, WithRedis(client, RedisConfig{Block: time.Second}))
			},
			assertFn: func(t *testing.T, source tickv1.TickSource, err error) {
				require.NoError(t, err)
				assert.IsType(t, &RedisSource{}, source)
			},
		},
		{
			name: "redis without client",
			factory: func(ctrl *gomock.Controller, log *mockLogger.MockInterface) *Factory {
				return NewFactory(DriverRedis, log)
			},
			assertFn: func(t *testing.T, source tickv1.TickSource, err error) {
				assert.True(t, errors.ErrorCodeEquals(err, string(errors.BarStreamConfigError)))
			},
		},
		{
			name: "generator",
			factory: func(ctrl *gomock.Controller, log *mockLogger.MockInterface) *Factory {
				return NewFactory(DriverGenerator, log, WithGenerator(GeneratorConfig{Period: time.Millisecond, StartPrice: 100}))
			},
			assertFn: func(t *testing.T, source tickv1.TickSource, err error) {
				require.NoError(t, err)
				assert.IsType(t, &GeneratorSource{}, source)
				assert.NoError(t, source.Close())
			},
		},
		{
			name: "unknown driver",
			factory: func(ctrl *gomock.Controller, log *mockLogger.MockInterface) *Factory {
				return NewFactory("zeromq", log)
			},
			assertFn: func(t *testing.T, source tickv1.TickSource, err error) {
				assert.Nil(t, source)
				assert.True(t, errors.ErrorCodeEquals(err, string(errors.BarStreamConfigError)))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			log := mockLogger.NewMockInterface(ctrl)
			log.EXPECT().WithFields(gomock.Any(), gomock.Any()).Return(log)

			source, err := tc.factory(ctrl, log).Open(context.Background(), "EURUSD")
			tc.assertFn(t, source, err)
		})
	}
}
