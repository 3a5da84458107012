package linkcache

import (
	"context"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	Data *cache.Cache
	TTL  time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	ctx := context.Background()
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}
	data := cache.New(&cache.Options{
		Redis:      rdb,
		LocalCache: cache.NewTinyLFU(10_000, ttl),
	})
	return &RedisStore{
		Data: data,
		TTL:  ttl,
	}, nil
}

func redisCacheKey(username string) string {
	return "sociallinks/" + username
}

func (s RedisStore) Get(ctx context.Context, username string) ([]string, bool, error) {
	var links []string
	err := s.Data.Get(ctx, redisCacheKey(username), &links)
	if err == cache.ErrCacheMiss {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return links, true, nil
}

func (s RedisStore) Set(ctx context.Context, username string, links []string) error {
	return s.Data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisCacheKey(username),
		Value: links,
		TTL:   s.TTL,
	})
}

func (s RedisStore) Purge(ctx context.Context, username string) error {
	err := s.Data.Delete(ctx, redisCacheKey(username))
	if err == cache.ErrCacheMiss {
		return nil
	}
	return err
}
