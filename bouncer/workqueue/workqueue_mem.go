package workqueue

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemQueue struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func NewMemQueue() *MemQueue {
	return &MemQueue{
		items: make(map[string]time.Time),
	}
}

var _ Queue = (*MemQueue)(nil)

func (q *MemQueue) Add(ctx context.Context, key string, dueAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items[key] = dueAt
	return nil
}

func (q *MemQueue) Remove(ctx context.Context, key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.items, key)
	return nil
}

func (q *MemQueue) Due(ctx context.Context, before time.Time) ([]Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []Item
	for key, dueAt := range q.items {
		if !dueAt.After(before) {
			out = append(out, Item{Key: key, DueAt: dueAt})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].Key < out[j].Key
		}
		return out[i].DueAt.Before(out[j].DueAt)
	})
	return out, nil
}

// Len reports the total number of queued items, due or not. Intended for tests.
func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
