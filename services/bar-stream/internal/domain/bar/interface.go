package bar

import (
	"context"

	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
)

// Usecase is the interface transports use to stream bars.
//
//go:generate mockgen -source=interface.go -destination=mock/usecase_mock.go -package=mock
type Usecase interface {
	// Subscribe streams a Snapshot followed by live BarUpdate events until ctx is
	// done or the server ends the stream with a Terminal event. The channel is
	// closed in every case.
	Subscribe(ctx context.Context, symbol, interval string, depth int) (<-chan barv1.Event, error)
}
