package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/marketmaster/marketmaster-backend/pkg/redis"
)

// RedisStore adapts the shared Redis client to the Store capability. Every
// write refreshes the slot TTL, so active carts never expire mid-session.
type RedisStore struct {
	client *redisclient.Client
	ttl    time.Duration
}

// NewRedisStore wraps the provided client. A zero TTL means slots never expire.
func NewRedisStore(client *redisclient.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Read(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *RedisStore) Write(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, s.ttl)
}

func (s *RedisStore) Erase(ctx context.Context, key string) error {
	return s.client.Del(ctx, key)
}
