package backfill

import (
	"context"
	"sort"
	"sync"
	"time"

	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
)

type memoryStore struct {
	mu      sync.Mutex
	bars    map[barv1.Key]map[time.Time]barv1.Bar
	upserts int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{bars: make(map[barv1.Key]map[time.Time]barv1.Bar)}
}

func (s *memoryStore) LoadRecent(_ context.Context, symbol, interval string, limit int) ([]barv1.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []barv1.Bar
	for _, b := range s.bars[barv1.Key{Symbol: symbol, Interval: interval}] {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BucketStart.Before(out[j].BucketStart) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memoryStore) Upsert(_ context.Context, bar barv1.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := bar.Key()
	if s.bars[key] == nil {
		s.bars[key] = make(map[time.Time]barv1.Bar)
	}
	s.bars[key][bar.BucketStart] = bar
	s.upserts++
	return nil
}
