package varstore

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/redis/go-redis/v9"
)

var redisVarsKey = "vars"

// RedisVarStore holds all settings in a single redis hash, values encoded as
// JSON. Reads go to redis on every call; live edits (HSET) take effect on the
// next classification run.
type RedisVarStore struct {
	Client *redis.Client
}

func NewRedisVarStore(redisURL string) (*RedisVarStore, error) {
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
	return &RedisVarStore{Client: rdb}, nil
}

var _ Store = (*RedisVarStore)(nil)

func (s *RedisVarStore) get(ctx context.Context, key string) (string, bool, error) {
	raw, err := s.Client.HGet(ctx, redisVarsKey, key).Result()
	if err == redis.Nil {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return raw, true, nil
}

func (s *RedisVarStore) GetString(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.get(ctx, key)
	if !ok || err != nil {
		return "", ok, err
	}
	var out string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		// tolerate bare unquoted strings
		return raw, true, nil
	}
	return out, true, nil
}

func (s *RedisVarStore) GetStringList(ctx context.Context, key string) ([]string, bool, error) {
	raw, ok, err := s.get(ctx, key)
	if !ok || err != nil {
		return nil, ok, err
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false, nil
	}
	return out, true, nil
}

func (s *RedisVarStore) GetInt(ctx context.Context, key string) (int64, bool, error) {
	raw, ok, err := s.get(ctx, key)
	if !ok || err != nil {
		return 0, ok, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

func (s *RedisVarStore) GetBool(ctx context.Context, key string) (bool, bool, error) {
	raw, ok, err := s.get(ctx, key)
	if !ok || err != nil {
		return false, ok, err
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, nil
	}
	return b, true, nil
}
