package logger

import (
	"context"
	"testing"

	"github.com/muhammadchandra19/exchange/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestWithContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, withContext(ctx, nil))

	ctx = util.WithRequestID(ctx, "req-1")
	ctx = util.WithSubscriptionID(ctx, "01J8ZQ")
	ctx = util.WithClientIP(ctx, "10.0.0.7")

	fields := withContext(ctx, []Field{{Key: "symbol", Value: "EURUSD"}})
	assert.Equal(t, []Field{
		{Key: "symbol", Value: "EURUSD"},
		{Key: "request_id", Value: "req-1"},
		{Key: "subscription_id", Value: "01J8ZQ"},
		{Key: "client_ip", Value: "10.0.0.7"},
	}, fields)
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(WithLoggingLevel(WarnLevel), WithService("bar-stream", "test"))
	require.NoError(t, err)

	core := log.GetZap().Core()
	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))

	child := log.WithFields(Field{Key: "key", Value: "X:1s"})
	assert.NotSame(t, log.GetZap(), child.GetZap())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel("verbose"))
}
