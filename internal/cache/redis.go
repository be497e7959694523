package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed Store. Entries live under a key prefix so several
// deployments can share one server.
type RedisStore struct {
	client *redis.Client
	maxAge time.Duration
	prefix string
}

// RedisConfig holds configuration for the Redis store
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// MaxAge becomes the Redis expiry of every key. Zero keeps keys until deleted.
	MaxAge time.Duration
}

// NewRedis connects to Redis and verifies the connection
func NewRedis(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "newsfeed:"
	}

	return &RedisStore{
		client: client,
		maxAge: cfg.MaxAge,
		prefix: prefix,
	}, nil
}

func (c *RedisStore) key(k string) string {
	return c.prefix + k
}

func (c *RedisStore) Get(key string) (Entry, bool) {
	ctx := context.Background()

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false
	}
	return e, true
}

func (c *RedisStore) Set(key string, e Entry) error {
	ctx := context.Background()

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := c.client.Set(ctx, c.key(key), data, c.maxAge).Err(); err != nil {
		if redis.IsOOMError(err) {
			return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
		}
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *RedisStore) Delete(key string) {
	ctx := context.Background()
	c.client.Del(ctx, c.key(key))
}

// DeleteByPrefix uses SCAN to find all keys with the namespaced prefix and deletes them
func (c *RedisStore) DeleteByPrefix(prefix string) error {
	ctx := context.Background()

	iter := c.client.Scan(ctx, 0, c.key(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Close closes the Redis connection
func (c *RedisStore) Close() error {
	return c.client.Close()
}

// Ensure RedisStore implements Store interface
var _ Store = (*RedisStore)(nil)
