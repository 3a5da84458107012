package statstore

import (
	"context"
	"sync"
	"time"
)

type MemStatStore struct {
	mu    sync.Mutex
	stats map[string]HitStats
}

func NewMemStatStore() *MemStatStore {
	return &MemStatStore{
		stats: make(map[string]HitStats),
	}
}

var _ StatStore = (*MemStatStore)(nil)

func (s *MemStatStore) Hit(ctx context.Context, name string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats[name]
	st.HitCount++
	if at.After(st.LastHit) {
		st.LastHit = at
	}
	s.stats[name] = st
	return nil
}

func (s *MemStatStore) Get(ctx context.Context, name string) (HitStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats[name], nil
}

func (s *MemStatStore) All(ctx context.Context) (map[string]HitStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]HitStats, len(s.stats))
	for k, v := range s.stats {
		out[k] = v
	}
	return out, nil
}
