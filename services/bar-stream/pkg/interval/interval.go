package interval

import (
	"fmt"
	"strings"
	"time"
)

// Alignment is the rule used to place a bucket on the time axis.
type Alignment int

const (
	// AlignEpoch buckets are multiples of the duration counted from the unix epoch.
	AlignEpoch Alignment = iota
	// AlignDay buckets start at UTC midnight.
	AlignDay
	// AlignWeek buckets start at UTC midnight on Monday.
	AlignWeek
)

// Interval is a bar granularity.
type Interval struct {
	Name      string
	Duration  time.Duration
	Alignment Alignment
}

// Supported intervals
var (
	Interval1s  = Interval{Name: "1s", Duration: time.Second}
	Interval5s  = Interval{Name: "5s", Duration: 5 * time.Second}
	Interval15s = Interval{Name: "15s", Duration: 15 * time.Second}
	Interval1m  = Interval{Name: "1m", Duration: time.Minute}
	Interval3m  = Interval{Name: "3m", Duration: 3 * time.Minute}
	Interval5m  = Interval{Name: "5m", Duration: 5 * time.Minute}
	Interval15m = Interval{Name: "15m", Duration: 15 * time.Minute}
	Interval30m = Interval{Name: "30m", Duration: 30 * time.Minute}
	Interval1d  = Interval{Name: "1d", Duration: 24 * time.Hour, Alignment: AlignDay}
	Interval1w  = Interval{Name: "1w", Duration: 7 * 24 * time.Hour, Alignment: AlignWeek}
)

// AllIntervals lists every supported interval, smallest first.
var AllIntervals = []Interval{
	Interval1s, Interval5s, Interval15s,
	Interval1m, Interval3m, Interval5m, Interval15m, Interval30m,
	Interval1d, Interval1w,
}

// Smallest is what unknown names resolve to.
var Smallest = Interval1s

var intervalRegistry = make(map[string]Interval, len(AllIntervals))

func init() {
	for _, interval := range AllIntervals {
		intervalRegistry[interval.Name] = interval
	}
}

// lookup matches names case-insensitively, ignoring surrounding blanks.
func lookup(name string) (Interval, bool) {
	interval, exists := intervalRegistry[strings.ToLower(strings.TrimSpace(name))]
	return interval, exists
}

// Get returns an interval by name.
func Get(name string) (Interval, error) {
	interval, exists := lookup(name)
	if !exists {
		return Interval{}, fmt.Errorf("unsupported interval: %s", name)
	}
	return interval, nil
}

// Resolve returns the interval for name, or Smallest when name is unknown.
// Callers that must reject bad input should use Get or IsValid first.
func Resolve(name string) Interval {
	if interval, exists := lookup(name); exists {
		return interval
	}
	return Smallest
}

// IsValid checks if interval name is supported
func IsValid(name string) bool {
	_, exists := lookup(name)
	return exists
}

// Names returns all supported interval names, smallest first.
func Names() []string {
	names := make([]string, 0, len(AllIntervals))
	for _, interval := range AllIntervals {
		names = append(names, interval.Name)
	}
	return names
}

// String implements fmt.Stringer.
func (i Interval) String() string {
	return i.Name
}
