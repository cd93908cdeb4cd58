package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to cfg.Addr and checks the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("storage: ping redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// EventBus publishes complaint events on a Redis Pub/Sub channel so every
// instance can push them to its own WebSocket clients.
type EventBus struct {
	Redis   *redis.Client
	Channel string
}

// NewEventBus creates a bus on channel.
func NewEventBus(rdb *redis.Client, channel string) *EventBus {
	return &EventBus{Redis: rdb, Channel: channel}
}

// Publish serializes ev and publishes it.
func (b *EventBus) Publish(ctx context.Context, ev models.ComplaintEvent) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.Redis.Publish(ctx, b.Channel, string(msg)).Err()
}

// Subscribe opens a subscription to the event channel. The caller closes it.
func (b *EventBus) Subscribe(ctx context.Context) *redis.PubSub {
	return b.Redis.Subscribe(ctx, b.Channel)
}

// SummaryCache stores the serialized analytics summary under one key.
type SummaryCache struct {
	Redis *redis.Client
	Key   string
	TTL   time.Duration
}

// NewSummaryCache creates a cache entry at key expiring after ttl.
func NewSummaryCache(rdb *redis.Client, key string, ttl time.Duration) *SummaryCache {
	return &SummaryCache{Redis: rdb, Key: key, TTL: ttl}
}

// Get returns the cached bytes and whether they were present.
func (c *SummaryCache) Get(ctx context.Context) ([]byte, bool, error) {
	data, err := c.Redis.Get(ctx, c.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *SummaryCache) Set(ctx context.Context, data []byte) error {
	return c.Redis.Set(ctx, c.Key, data, c.TTL).Err()
}

func (c *SummaryCache) Invalidate(ctx context.Context) error {
	return c.Redis.Del(ctx, c.Key).Err()
}
