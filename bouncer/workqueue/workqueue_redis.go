package workqueue

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisQueuePrefix string = "queue/"

// RedisQueue backs one named queue with a redis sorted set, scored by due
// time (unix seconds, float for sub-second resolution). ZADD upsert gives
// the dedup-with-rescore behavior for free.
type RedisQueue struct {
	Client *redis.Client
	Name   string
}

func NewRedisQueue(client *redis.Client, name string) *RedisQueue {
	return &RedisQueue{
		Client: client,
		Name:   name,
	}
}

var _ Queue = (*RedisQueue)(nil)

func (q *RedisQueue) key() string {
	return redisQueuePrefix + q.Name
}

func (q *RedisQueue) Add(ctx context.Context, key string, dueAt time.Time) error {
	return q.Client.ZAdd(ctx, q.key(), redis.Z{
		Score:  float64(dueAt.UnixMilli()) / 1000.0,
		Member: key,
	}).Err()
}

func (q *RedisQueue) Remove(ctx context.Context, key string) error {
	return q.Client.ZRem(ctx, q.key(), key).Err()
}

func (q *RedisQueue) Due(ctx context.Context, before time.Time) ([]Item, error) {
	max := strconv.FormatFloat(float64(before.UnixMilli())/1000.0, 'f', 3, 64)
	zs, err := q.Client.ZRangeByScoreWithScores(ctx, q.key(), &redis.ZRangeBy{
		Min: "-inf",
		Max: max,
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, Item{
			Key:   member,
			DueAt: time.UnixMilli(int64(z.Score * 1000.0)).UTC(),
		})
	}
	return out, nil
}
