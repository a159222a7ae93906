package keycache

import (
	"context"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultKey is where the KMS key ID is remembered.
const DefaultKey = "weather-dashboard:kms-key-id"

// RedisCache remembers a created KMS key ID across process runs, so a second
// run reuses the key instead of creating another one.
type RedisCache struct {
	redis  *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisCache returns a cache storing the key ID under DefaultKey.
func NewRedisCache(rdb *redis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{redis: rdb, key: DefaultKey, logger: logger}
}

// Connect dials Redis and verifies it answers.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// KeyID returns the remembered key ID, or "" on a cache miss.
func (c *RedisCache) KeyID(ctx context.Context) (string, error) {
	id, err := c.redis.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("kms key id cache miss")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis GET %s: %w", c.key, err)
	}
	c.logger.Debug("kms key id cache hit", zap.String("key_id", id))
	return id, nil
}

// SetKeyID remembers id with no expiry.
func (c *RedisCache) SetKeyID(ctx context.Context, id string) error {
	if err := c.redis.Set(ctx, c.key, id, 0).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", c.key, err)
	}
	return nil
}
