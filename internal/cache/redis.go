package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"travel-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func NewRedisClient(cfg utils.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// SearchCache keeps one hash per inventory kind. Fields are search keys and
// values are JSON pages, so a single DEL drops every cached page of a kind.
type SearchCache struct {
	client redis.Cmdable
	ttl    time.Duration
	log    *zap.Logger
}

func NewSearchCache(client redis.Cmdable, ttl time.Duration, log *zap.Logger) *SearchCache {
	return &SearchCache{
		client: client,
		ttl:    ttl,
		log:    log.With(zap.String("cache", "search")),
	}
}

func (c *SearchCache) Get(ctx context.Context, kind, key string, dest any) (bool, error) {
	data, err := c.client.HGet(ctx, searchKey(kind), key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s cache: %w", kind, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.log.Warn("Dropping undecodable cache entry",
			zap.Error(err),
			zap.String("kind", kind),
			zap.String("key", key),
		)
		return false, nil
	}
	return true, nil
}

func (c *SearchCache) Set(ctx context.Context, kind, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s cache: %w", kind, err)
	}

	if err := c.client.HSet(ctx, searchKey(kind), key, string(payload)).Err(); err != nil {
		return fmt.Errorf("set %s cache: %w", kind, err)
	}
	if err := c.client.Expire(ctx, searchKey(kind), c.ttl).Err(); err != nil {
		return fmt.Errorf("expire %s cache: %w", kind, err)
	}
	return nil
}

func (c *SearchCache) Invalidate(ctx context.Context, kind string) error {
	if err := c.client.Del(ctx, searchKey(kind)).Err(); err != nil {
		return fmt.Errorf("invalidate %s cache: %w", kind, err)
	}
	return nil
}

// Claims is a SETNX lock that stops two replicas from inserting the same
// booking at once. The TTL frees claims left behind by a crashed request.
type Claims struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewClaims(client redis.Cmdable, ttl time.Duration) *Claims {
	return &Claims{client: client, ttl: ttl}
}

func (c *Claims) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := c.client.SetNX(ctx, claimKey(key), "1", c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire claim %s: %w", key, err)
	}
	return ok, nil
}

func (c *Claims) Release(ctx context.Context, key string) error {
	return c.client.Del(ctx, claimKey(key)).Err()
}

func searchKey(kind string) string {
	return "cache:search:" + kind
}

func claimKey(key string) string {
	return "lock:booking:" + key
}
