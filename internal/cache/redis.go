// Package cache provides the shared-resource coordination primitives of
// spec.md §5: a per-(account, key) distributed lock so two concurrent
// refresh requests for the same account serialize instead of racing, plus
// a thin response cache. Grounded on the teacher's
// internal/infrastructure/services/redis_cache.go.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

func New(addr, password string, db int) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     password,
			DB:           db,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		}),
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get failed: %w", err)
	}
	return val, true, nil
}

func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}

// AccountLockKey names the distributed lock guarding a single account's
// in-flight sync cycle. The queue worker's refresh-account job takes it, so
// two workers never refresh the same account at once; the cron sweep
// (HandleCron) does not take it.
func AccountLockKey(accountID string) string {
	return "lock:account:" + accountID
}

// Lock acquires a distributed lock via SET NX, releasing automatically
// after ttl if Unlock is never called (crash safety).
func (c *Cache) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache lock failed: %w", err)
	}
	return acquired, nil
}

func (c *Cache) Unlock(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache unlock failed: %w", err)
	}
	return nil
}

// Client exposes the underlying client for the job queue, matching the
// teacher's RedisCacheService.Client() escape hatch.
func (c *Cache) Client() *redis.Client { return c.client }
