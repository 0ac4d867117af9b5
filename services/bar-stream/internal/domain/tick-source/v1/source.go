package v1

import "context"

//go:generate mockgen -source=source.go -destination=mock/source_mock.go -package=mock

// TickSource is a non-restartable stream of ticks for one symbol.
type TickSource interface {
	// Next blocks until a tick is available. Errors other than cancellation are transient.
	Next(ctx context.Context) (Tick, error)
	Close() error
}

// SourceFactory opens a TickSource per symbol.
type SourceFactory interface {
	Open(ctx context.Context, symbol string) (TickSource, error)
}
