package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"habit_tracker_backend/internal/analytics"
	"time"

	"github.com/go-redis/redis/v8"
)

// InsightCache 按用户缓存洞察结果，未命中时 Get 返回 nil, nil
type InsightCache interface {
	Get(ctx context.Context, userID uint) (*analytics.Insight, error)
	Set(ctx context.Context, userID uint, insight *analytics.Insight) error
	Invalidate(ctx context.Context, userID uint) error
}

type RedisInsightCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisInsightCache(client *redis.Client, ttl time.Duration) *RedisInsightCache {
	return &RedisInsightCache{Client: client, TTL: ttl}
}

func insightCacheKey(userID uint) string {
	return fmt.Sprintf("habit:insight:%d", userID)
}

func (c *RedisInsightCache) Get(ctx context.Context, userID uint) (*analytics.Insight, error) {
	data, err := c.Client.Get(ctx, insightCacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var insight analytics.Insight
	if err := json.Unmarshal(data, &insight); err != nil {
		return nil, err
	}
	return &insight, nil
}

func (c *RedisInsightCache) Set(ctx context.Context, userID uint, insight *analytics.Insight) error {
	data, err := json.Marshal(insight)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, insightCacheKey(userID), data, c.TTL).Err()
}

func (c *RedisInsightCache) Invalidate(ctx context.Context, userID uint) error {
	return c.Client.Del(ctx, insightCacheKey(userID)).Err()
}

// NoopInsightCache 未启用 Redis 时使用
type NoopInsightCache struct{}

func (NoopInsightCache) Get(context.Context, uint) (*analytics.Insight, error) { return nil, nil }
func (NoopInsightCache) Set(context.Context, uint, *analytics.Insight) error { return nil }
func (NoopInsightCache) Invalidate(context.Context, uint) error { return nil }
