package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces credential entries in Redis.
const DefaultRedisKeyPrefix = "stockportal:credentials:"

// RedisBackend stores entries as plain Redis string keys.
type RedisBackend struct {
	client redis.Cmdable
	prefix string
}

// NewRedisBackend creates a Redis backend. An empty prefix selects
// DefaultRedisKeyPrefix.
func NewRedisBackend(client redis.Cmdable, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisBackend{
		client: client,
		prefix: prefix,
	}
}

func (b *RedisBackend) Read(ctx context.Context, name string) (string, bool, error) {
	val, err := b.client.Get(ctx, b.prefix+name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read credential entry %s: %w", name, err)
	}
	return val, true, nil
}

func (b *RedisBackend) Write(ctx context.Context, name, value string) error {
	if err := b.client.Set(ctx, b.prefix+name, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write credential entry %s: %w", name, err)
	}
	return nil
}

func (b *RedisBackend) Remove(ctx context.Context, name string) error {
	if err := b.client.Del(ctx, b.prefix+name).Err(); err != nil {
		return fmt.Errorf("failed to remove credential entry %s: %w", name, err)
	}
	return nil
}
