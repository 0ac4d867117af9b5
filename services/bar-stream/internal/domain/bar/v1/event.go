package v1

// Event is delivered to subscribers. The set of implementations is closed:
// Snapshot, BarUpdate and Terminal.
type Event interface {
	isEvent()
}

// Snapshot carries the backfill and is always the first event of a subscription.
type Snapshot struct {
	Key  Key
	Bars []Bar
}

// BarUpdate carries the current state of a bar. Final is set once the bucket is closed.
type BarUpdate struct {
	Bar   Bar
	Final bool
}

// Terminal is the last event before the subscription channel is closed by the server.
type Terminal struct {
	Err error
}

func (Snapshot) isEvent()  {}
func (BarUpdate) isEvent() {}
func (Terminal) isEvent()  {}
