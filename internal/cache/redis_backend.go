package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const defaultRedisTimeout = 600 * time.Millisecond

// RedisBackend stores cache blobs in Redis under "{prefix}{key}.json".
// Entries never expire server-side; freshness is decided by ResponseStore.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend instantiates a backend based on a connection URL.
func NewRedisBackend(rawURL, prefix string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &RedisBackend{client: redis.NewClient(opts), prefix: prefix}, nil
}

// NewRedisBackendWithClient wraps an existing client.
func NewRedisBackendWithClient(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix}
}

func (r *RedisBackend) redisKey(key string) string {
	return r.prefix + key + ".json"
}

// Get fetches a blob or returns nil when missing.
func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRedisTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Set overwrites the blob for key without a TTL.
func (r *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, defaultRedisTimeout)
	defer cancel()

	return r.client.Set(ctx, r.redisKey(key), value, 0).Err()
}

// Close releases the Redis client resources.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
