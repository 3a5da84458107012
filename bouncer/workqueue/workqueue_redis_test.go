package workqueue

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisQueueBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	opt, err := redis.ParseURL("redis://localhost:6379/0")
	if err != nil {
		t.Fail()
	}
	q := NewRedisQueue(redis.NewClient(opt), "test")

	now := time.Now()
	assert.NoError(q.Add(ctx, "post1~alice", now.Add(-time.Minute)))
	assert.NoError(q.Add(ctx, "post1~alice", now.Add(-30*time.Second)))
	assert.NoError(q.Add(ctx, "post2~bob", now.Add(time.Hour)))

	items, err := q.Due(ctx, now)
	assert.NoError(err)
	assert.Len(items, 1)
	assert.Equal("post1~alice", items[0].Key)

	assert.NoError(q.Remove(ctx, "post1~alice"))
	assert.NoError(q.Remove(ctx, "post1~alice"))
	assert.NoError(q.Remove(ctx, "post2~bob"))
}
