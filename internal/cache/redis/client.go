// Package redis mirrors live market state to Redis. The control loop writes
// the freshest top of book and signal here so dashboards and other processes
// can observe the bot without touching the hot path, and publishes each cycle
// on a pub/sub channel and stream.
package redis

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ClientConfig carries the connection settings for the state mirror.
type ClientConfig struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int
	TLSEnabled bool
}

// Client owns the driver connection shared by the market cache and signal
// bus.
type Client struct {
	rdb *redis.Client
}

// New connects and verifies the server responds before handing the client
// out, so a bad address fails at wiring time rather than mid-cycle.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	opts := &redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		PoolSize:   cfg.PoolSize,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}

	return &Client{rdb: rdb}, nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Underlying exposes the driver client to the cache and bus implementations
// in this package.
func (c *Client) Underlying() *redis.Client {
	return c.rdb
}
