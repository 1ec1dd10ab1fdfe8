// Package redis implements cache.Cache on a Redis server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/heritagehub/cms/cache"
	"github.com/heritagehub/cms/cache/internal/tracking"
	"github.com/heritagehub/cms/config"
)

const pingTimeout = 5 * time.Second

// Client implements cache.Cache using Redis.
type Client struct {
	client *redis.Client
	addr   string
	closed atomic.Bool
}

var _ cache.Cache = (*Client)(nil)

// Address returns host:port for cfg.
func Address(cfg *config.RedisConfig) string {
	return fmt.Sprintf("%s:%d", strings.TrimSpace(cfg.Host), cfg.Port)
}

// NewClient connects to Redis and verifies the connection with PING.
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	addr := Address(cfg)
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.Database,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxRetries:   cfg.MaxRetries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, cache.NewConnectionError("ping", addr, err)
	}

	return &Client{client: rdb, addr: addr}, nil
}

// Get retrieves key. A missing key returns cache.ErrNotFound.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, cache.ErrClosed
	}

	start := time.Now()
	val, err := c.client.Get(ctx, key).Bytes()
	duration := time.Since(start)

	if errors.Is(err, redis.Nil) {
		tracking.RecordOperation(ctx, tracking.OpGet, duration, false, nil)
		return nil, cache.ErrNotFound
	}
	tracking.RecordOperation(ctx, tracking.OpGet, duration, err == nil, err)
	if err != nil {
		return nil, cache.NewOperationError("get", key, err)
	}
	return val, nil
}

// Set stores value under key for ttl; zero ttl never expires.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return cache.ErrClosed
	}
	if ttl < 0 {
		return cache.ErrInvalidTTL
	}

	start := time.Now()
	err := c.client.Set(ctx, key, value, ttl).Err()
	tracking.RecordOperation(ctx, tracking.OpSet, time.Since(start), false, err)
	if err != nil {
		return cache.NewOperationError("set", key, err)
	}
	return nil
}

// Delete removes keys in a single DEL.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if c.closed.Load() {
		return cache.ErrClosed
	}
	if len(keys) == 0 {
		return nil
	}

	start := time.Now()
	err := c.client.Del(ctx, keys...).Err()
	tracking.RecordOperation(ctx, tracking.OpDelete, time.Since(start), false, err)
	if err != nil {
		return cache.NewOperationError("delete", strings.Join(keys, ","), err)
	}
	return nil
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	if c.closed.Load() {
		return cache.ErrClosed
	}

	start := time.Now()
	err := c.client.Ping(ctx).Err()
	tracking.RecordOperation(ctx, tracking.OpHealth, time.Since(start), false, err)
	if err != nil {
		return cache.NewConnectionError("ping", c.addr, err)
	}
	return nil
}

// Stats reports connection pool counters.
func (c *Client) Stats() map[string]any {
	ps := c.client.PoolStats()
	return map[string]any{
		"hits":        ps.Hits,
		"misses":      ps.Misses,
		"timeouts":    ps.Timeouts,
		"total_conns": ps.TotalConns,
		"idle_conns":  ps.IdleConns,
		"stale_conns": ps.StaleConns,
	}
}

// Close releases the connection pool. Further calls return cache.ErrClosed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.client.Close()
}
