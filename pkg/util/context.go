package util

import (
	"context"
)

type key string

const (
	clientIPKey     = key("x-forwarded-for")
	subscriptionKey = key("subscription-id")
)

// WithClientIP returns a context with a client ip
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// WithSubscriptionID returns a context carrying the hub subscriber id of a stream.
func WithSubscriptionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, subscriptionKey, id)
}

// WithRequestID returns a context with request id
func WithRequestID(ctx context.Context, id string) context.Context {
	return ContextWithRequestID(ctx, id)
}

// GetClientIP returns client ip from context
// will return empty string if not present
func GetClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

// GetSubscriptionID returns the subscriber id from context
// will return empty string if not present
func GetSubscriptionID(ctx context.Context) string {
	id, _ := ctx.Value(subscriptionKey).(string)
	return id
}

// GetRequestID returns request id from context
// will return empty string if not present
func GetRequestID(ctx context.Context) string {
	return FromContext(ctx)
}
