package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Yvan2XEro/calendar-sync-sub002/core/config"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/constants"
	"github.com/Yvan2XEro/calendar-sync-sub002/core/logger"
)

const blacklistPrefix = "token:blacklist:"

// Cache is the narrow cache surface needed by the auth middleware.
type Cache interface {
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
	AddToTokenBlacklist(ctx context.Context, token string) error
	Close() error
}

type redisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	logger.Info("Redis cache initialized", "addr", cfg.Addr, "db", cfg.DB)
	return &redisCache{client: client}, nil
}

func (c *redisCache) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := c.client.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *redisCache) AddToTokenBlacklist(ctx context.Context, token string) error {
	return c.client.Set(ctx, blacklistPrefix+token, "1", constants.AccessTokenTTL).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
