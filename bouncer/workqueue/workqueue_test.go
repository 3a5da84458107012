package workqueue

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	tassert "github.com/stretchr/testify/assert"
)

func TestMemQueueDedup(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	q := NewMemQueue()

	t1 := time.Now()
	t2 := t1.Add(10 * time.Minute)

	assert.NoError(q.Add(ctx, "post1~alice", t1))
	assert.NoError(q.Add(ctx, "post1~alice", t2))
	assert.Equal(1, q.Len())

	items, err := q.Due(ctx, t2)
	assert.NoError(err)
	assert.Len(items, 1)
	assert.Equal(t2, items[0].DueAt)
}

func TestMemQueueDueOrdering(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	q := NewMemQueue()

	now := time.Now()
	assert.NoError(q.Add(ctx, "c", now.Add(3*time.Minute)))
	assert.NoError(q.Add(ctx, "a", now.Add(1*time.Minute)))
	assert.NoError(q.Add(ctx, "b", now.Add(2*time.Minute)))
	assert.NoError(q.Add(ctx, "later", now.Add(time.Hour)))

	items, err := q.Due(ctx, now.Add(5*time.Minute))
	assert.NoError(err)
	assert.Len(items, 3)
	assert.Equal("a", items[0].Key)
	assert.Equal("b", items[1].Key)
	assert.Equal("c", items[2].Key)
}

func TestMemQueueRemoveIdempotent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	q := NewMemQueue()

	assert.NoError(q.Add(ctx, "x", time.Now()))
	assert.NoError(q.Remove(ctx, "x"))
	assert.NoError(q.Remove(ctx, "x"))
	assert.NoError(q.Remove(ctx, "never-added"))
	assert.Equal(0, q.Len())
}

func TestDrainProcessesAllDue(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	q := NewMemQueue()

	now := time.Now()
	assert.NoError(q.Add(ctx, "a", now.Add(-2*time.Minute)))
	assert.NoError(q.Add(ctx, "b", now.Add(-1*time.Minute)))
	assert.NoError(q.Add(ctx, "future", now.Add(time.Hour)))

	var seen []string
	n, err := Drain(ctx, slog.Default(), q, now, time.Second, func(ctx context.Context, key string) error {
		seen = append(seen, key)
		return q.Remove(ctx, key)
	})
	assert.NoError(err)
	assert.Equal(2, n)
	assert.Equal([]string{"a", "b"}, seen)
	assert.Equal(1, q.Len())
}

func TestDrainBudgetBound(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	q := NewMemQueue()

	now := time.Now()
	for _, k := range []string{"a", "b", "c", "d"} {
		assert.NoError(q.Add(ctx, k, now.Add(-time.Minute)))
	}

	// each handler call sleeps past the whole budget, so only the first
	// in-flight item runs to completion
	budget := 10 * time.Millisecond
	start := time.Now()
	n, err := Drain(ctx, slog.Default(), q, now, budget, func(ctx context.Context, key string) error {
		time.Sleep(25 * time.Millisecond)
		return q.Remove(ctx, key)
	})
	elapsed := time.Since(start)
	assert.NoError(err)
	assert.Equal(1, n)
	assert.Equal(3, q.Len())
	assert.Less(elapsed, budget+100*time.Millisecond)
}

func TestDrainHandlerErrorContinues(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	q := NewMemQueue()

	now := time.Now()
	assert.NoError(q.Add(ctx, "bad", now.Add(-2*time.Minute)))
	assert.NoError(q.Add(ctx, "good", now.Add(-1*time.Minute)))

	var handled []string
	n, err := Drain(ctx, slog.Default(), q, now, time.Second, func(ctx context.Context, key string) error {
		handled = append(handled, key)
		if key == "bad" {
			return tassert.AnError
		}
		return q.Remove(ctx, key)
	})
	assert.NoError(err)
	assert.Equal(2, n)
	assert.Equal([]string{"bad", "good"}, handled)
}
