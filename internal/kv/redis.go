package kv

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = &RedisStore{}

// NewRedisStore connects to addr and pings it. Keys are stored as prefix+key.
func NewRedisStore(ctx context.Context, addr string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "redis kv store: ping %s", addr)
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "redis kv store: get %q", key)
	}
	return v, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	err := s.client.Set(ctx, s.prefix+key, value, 0).Err()
	return errors.Wrapf(err, "redis kv store: set %q", key)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	err := s.client.Del(ctx, s.prefix+key).Err()
	return errors.Wrapf(err, "redis kv store: delete %q", key)
}

func (s *RedisStore) Close() error { return s.client.Close() }
