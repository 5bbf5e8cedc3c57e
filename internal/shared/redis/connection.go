package redis

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"galaxy-forge/internal/shared/config"
	"galaxy-forge/internal/shared/utils"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

// options builds client options from a URL when one is set, otherwise from
// host and port. Read and write timeouts stay under a second.
func options(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond
	opts.PoolSize = 10
	opts.MinIdleConns = 1
	return opts, nil
}

// Connect opens the Redis client and retries the first ping with backoff.
// It returns nil, nil when Redis is disabled; callers treat a nil client as
// a cache that always misses.
func Connect(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	logger := slog.With("component", "redis", "operation", "connect")

	if !cfg.Enabled {
		logger.Info("Redis disabled, summary cache off")
		return nil, nil
	}

	opts, err := options(cfg)
	if err != nil {
		logger.Error("Invalid Redis configuration", "error", err)
		return nil, err
	}
	logger = logger.With("addr", opts.Addr, "db", opts.DB)
	rdb := redis.NewClient(opts)

	policy := utils.RetryPolicy{Attempts: cfg.ConnectAttempts, InitialInterval: 250 * time.Millisecond, MaxInterval: 2 * time.Second}
	err = utils.Retry(ctx, policy, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}, func(err error, wait time.Duration) {
		logger.Warn("Redis not ready, retrying", "error", err, "wait", wait)
	})
	if err != nil {
		if closeErr := rdb.Close(); closeErr != nil {
			logger.Error("Failed to close Redis after ping failure", "close_error", closeErr)
		}
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("Redis connection established")
	return &Client{rdb}, nil
}

// Ping reports whether Redis is reachable. A nil client is never reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return fmt.Errorf("redis not configured")
	}
	return c.Client.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
