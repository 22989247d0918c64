package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// IsMiss reports whether err came from reading an absent key.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	return json.Unmarshal(val, dest)
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Track adds member to the set at key, so a group of entries can later be
// dropped together with DeleteTracked.
func (c *Cache) Track(ctx context.Context, key, member string, ttl time.Duration) error {
	pipe := c.client.TxPipeline()
	pipe.SAdd(ctx, key, member)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// DeleteTracked removes every key recorded in the set at key, then the set.
func (c *Cache) DeleteTracked(ctx context.Context, key string) error {
	members, err := c.client.SMembers(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("cache members %s: %w", key, err)
	}
	return c.Delete(ctx, append(members, key)...)
}
