package linkcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type MemStore struct {
	Data *expirable.LRU[string, []string]
}

func NewMemStore(capacity int, ttl time.Duration) MemStore {
	return MemStore{
		Data: expirable.NewLRU[string, []string](capacity, nil, ttl),
	}
}

var _ Store = MemStore{}

func (s MemStore) Get(ctx context.Context, username string) ([]string, bool, error) {
	v, ok := s.Data.Get(username)
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

func (s MemStore) Set(ctx context.Context, username string, links []string) error {
	s.Data.Add(username, links)
	return nil
}

func (s MemStore) Purge(ctx context.Context, username string) error {
	s.Data.Remove(username)
	return nil
}
