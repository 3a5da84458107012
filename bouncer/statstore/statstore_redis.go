package statstore

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	redisHitCountKey = "stats/hits"
	redisLastHitKey  = "stats/lasthit"
)

type RedisStatStore struct {
	Client *redis.Client
}

func NewRedisStatStore(redisURL string) (*RedisStatStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisStatStore{Client: rdb}, nil
}

var _ StatStore = (*RedisStatStore)(nil)

func (s *RedisStatStore) Hit(ctx context.Context, name string, at time.Time) error {
	// increment and stamp in a single redis round-trip, so overlapping ticks
	// never lose an update
	multi := s.Client.Pipeline()
	multi.HIncrBy(ctx, redisHitCountKey, name, 1)
	multi.HSet(ctx, redisLastHitKey, name, at.UTC().Format(time.RFC3339))
	_, err := multi.Exec(ctx)
	return err
}

func (s *RedisStatStore) Get(ctx context.Context, name string) (HitStats, error) {
	var out HitStats
	count, err := s.Client.HGet(ctx, redisHitCountKey, name).Result()
	if err == redis.Nil {
		return out, nil
	} else if err != nil {
		return out, err
	}
	out.HitCount, _ = strconv.ParseInt(count, 10, 64)
	stamp, err := s.Client.HGet(ctx, redisLastHitKey, name).Result()
	if err != nil && err != redis.Nil {
		return out, err
	}
	if stamp != "" {
		out.LastHit, _ = time.Parse(time.RFC3339, stamp)
	}
	return out, nil
}

func (s *RedisStatStore) All(ctx context.Context) (map[string]HitStats, error) {
	counts, err := s.Client.HGetAll(ctx, redisHitCountKey).Result()
	if err != nil {
		return nil, err
	}
	stamps, err := s.Client.HGetAll(ctx, redisLastHitKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]HitStats, len(counts))
	for name, raw := range counts {
		var st HitStats
		st.HitCount, _ = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if stamp, ok := stamps[name]; ok {
			st.LastHit, _ = time.Parse(time.RFC3339, stamp)
		}
		out[name] = st
	}
	return out, nil
}
