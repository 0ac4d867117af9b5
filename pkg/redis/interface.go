package redis

import (
	"context"

	v9 "github.com/redis/go-redis/v9"
)

// Client defines the interface for a Redis client.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=redis_mock
type Client interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Ping(ctx context.Context) error
	Reconnect(ctx context.Context) bool

	// Key returns name prefixed with the configured PrefixKey.
	Key(name string) string

	XAdd(ctx context.Context, args *v9.XAddArgs) (string, error)
	// XRead returns nil streams and a nil error when a blocking read times out.
	XRead(ctx context.Context, args *v9.XReadArgs) ([]v9.XStream, error)
}
