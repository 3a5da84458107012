package workqueue

import (
	"context"
	"log/slog"
	"time"
)

// Item is one queued unit of work: a composite key (eg "postID~username")
// scored by the time it becomes due.
type Item struct {
	Key   string
	DueAt time.Time
}

// Queue is a deduplicating set of items ordered by due time. Adding an
// existing key overwrites its due time; there is never more than one entry
// per key.
type Queue interface {
	Add(ctx context.Context, key string, dueAt time.Time) error
	// Remove is idempotent; removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Due returns items with dueAt <= before, ascending by due time.
	Due(ctx context.Context, before time.Time) ([]Item, error)
}

type HandlerFunc = func(ctx context.Context, key string) error

// Drain processes due items strictly in ascending due order until the queue
// has no more due items or wall-clock time since the drain started exceeds
// budget. The budget is a soft deadline: an item already started runs to
// completion. Handler errors are logged and do not stop the drain; the
// handler owns item lifecycle (remove on resolution, re-add to retry).
// Returns the number of handler invocations.
func Drain(ctx context.Context, logger *slog.Logger, q Queue, before time.Time, budget time.Duration, handler HandlerFunc) (int, error) {
	start := time.Now()
	items, err := q.Due(ctx, before)
	if err != nil {
		return 0, err
	}
	var processed int
	for _, item := range items {
		if time.Since(start) > budget {
			logger.Info("drain budget exceeded", "processed", processed, "remaining", len(items)-processed)
			break
		}
		if err := handler(ctx, item.Key); err != nil {
			logger.Error("drain handler failed", "key", item.Key, "err", err)
		}
		processed++
	}
	return processed, nil
}
