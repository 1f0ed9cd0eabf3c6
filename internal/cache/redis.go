// Package cache keeps the short-lived state nuber holds in Redis: resolved
// API-key callers, token buckets for API keys and client IPs, and the
// per-user verification email window.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pool sizing. Every GraphQL request touches Redis at most twice (auth
// lookup and rate limit), so a small pool is enough.
const (
	poolSize        = 10
	minIdleConns    = 2
	poolTimeout     = 4 * time.Second
	connMaxIdleTime = 5 * time.Minute
)

// Cache is the Redis handle shared by the auth middleware, the rate limiter
// and the verification service.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL and pings it once. The client is closed again
// if the ping fails.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.PoolSize = poolSize
	opt.MinIdleConns = minIdleConns
	opt.PoolTimeout = poolTimeout
	opt.ConnMaxIdleTime = connMaxIdleTime

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Ping backs the /readyz redis check.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close is registered as a shutdown hook by cmd/api.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client exposes the raw client to integration tests that flush the database.
func (c *Cache) Client() *redis.Client {
	return c.client
}
