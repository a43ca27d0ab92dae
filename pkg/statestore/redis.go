package statestore

import (
	"context"
	"fmt"

	"github.com/greenbasket/storefront/pkg/redis"
)

// RedisStore keeps per-user state in Redis under namespaced keys.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps the shared Redis client as a state store.
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, userID, field string) (string, error) {
	value, err := s.client.Get(ctx, s.client.StateKey(userID, field))
	if err != nil {
		if redis.IsNil(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, userID, field, value string) error {
	return s.client.Set(ctx, s.client.StateKey(userID, field), value, 0)
}

func (s *RedisStore) Delete(ctx context.Context, userID, field string) error {
	return s.client.Del(ctx, s.client.StateKey(userID, field))
}
