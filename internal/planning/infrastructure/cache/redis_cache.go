// Package cache keeps the latest recalculation summary per timeline.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "eventline:timeline:last-recalculation:"

// DefaultTTL bounds how long a summary is served from the cache.
const DefaultTTL = 7 * 24 * time.Hour

// redisClient is the part of redis.Cmdable the cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisSummaryCache stores summaries as JSON strings.
type RedisSummaryCache struct {
	client redisClient
	ttl    time.Duration
}

// NewRedisSummaryCache wraps client. A non-positive ttl selects DefaultTTL.
func NewRedisSummaryCache(client redisClient, ttl time.Duration) *RedisSummaryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisSummaryCache{client: client, ttl: ttl}
}

// NewRedisClient parses url and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisSummaryCache) Get(ctx context.Context, timelineID uuid.UUID) (*domain.Summary, error) {
	raw, err := c.client.Get(ctx, key(timelineID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s domain.Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode cached summary: %w", err)
	}
	return &s, nil
}

func (c *RedisSummaryCache) Put(ctx context.Context, summary domain.Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(summary.TimelineID), raw, c.ttl).Err()
}

func key(timelineID uuid.UUID) string {
	return keyPrefix + timelineID.String()
}
