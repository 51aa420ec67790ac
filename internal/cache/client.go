// Package cache provides best-effort JSON caching over Redis. No method
// returns an error: backend failures are logged, counted and reported to
// the caller as a miss or a failed write.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"connector-catalog/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// State is the position of the client in its connection lifecycle.
type State int32

const (
	StateUninitialized State = iota
	StateConnecting
	StateReady
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

const (
	probeTimeout  = 2 * time.Second
	maxProbeDelay = 2 * time.Second
	scanBatchSize = 100
)

// Client wraps a Redis connection. A nil backend yields a client that
// stays uninitialized and answers every read with a miss.
type Client struct {
	rdb    *redis.Client
	logger *zap.Logger

	state   atomic.Int32
	probing atomic.Bool
	closed  chan struct{}
	closing atomic.Bool
}

// New builds a client from configuration. When neither REDIS_URL nor
// REDIS_HOST is set the cache is disabled rather than failing startup.
func New(cfg config.RedisConfig, logger *zap.Logger) (*Client, error) {
	if !cfg.Enabled() {
		logger.Warn("Redis not configured, catalog caching disabled")
		return Disabled(logger), nil
	}

	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Host + ":" + cfg.Port,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	opts.MaxRetries = 3
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = time.Second
	opts.WriteTimeout = time.Second

	return NewWithRedis(redis.NewClient(opts), logger), nil
}

// NewWithRedis wraps an existing go-redis client and starts connecting in
// the background. It never blocks on the network.
func NewWithRedis(rdb *redis.Client, logger *zap.Logger) *Client {
	c := &Client{
		rdb:    rdb,
		logger: logger,
		closed: make(chan struct{}),
	}
	c.setState(StateConnecting)
	c.startProbe()
	return c
}

// Disabled returns a client with no backend.
func Disabled(logger *zap.Logger) *Client {
	c := &Client{logger: logger, closed: make(chan struct{})}
	c.setState(StateUninitialized)
	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Ready reports whether reads and writes are currently attempted.
func (c *Client) Ready() bool {
	return c.State() == StateReady
}

func (c *Client) setState(s State) {
	prev := State(c.state.Swap(int32(s)))
	CacheState.Set(float64(s))
	if prev != s && c.logger != nil {
		c.logger.Info("Cache state changed",
			zap.String("from", prev.String()),
			zap.String("to", s.String()),
		)
	}
}

// startProbe pings until the backend answers. Only one probe runs at a time.
func (c *Client) startProbe() {
	if c.rdb == nil || !c.probing.CompareAndSwap(false, true) {
		return
	}

	go func() {
		for attempt := 1; ; attempt++ {
			ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
			err := c.rdb.Ping(ctx).Err()
			cancel()

			if err == nil {
				c.probing.Store(false)
				c.setState(StateReady)
				return
			}

			c.logger.Debug("Cache connection attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)

			delay := time.Duration(attempt) * 50 * time.Millisecond
			if delay > maxProbeDelay {
				delay = maxProbeDelay
			}

			select {
			case <-c.closed:
				c.probing.Store(false)
				return
			case <-time.After(delay):
			}
		}
	}()
}

// callerGone reports whether err comes from the caller's own context rather
// than from the backend.
func callerGone(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// fail records a backend error and moves a ready client to degraded. Errors
// caused by a cancelled or expired caller context leave the state alone.
func (c *Client) fail(ctx context.Context, operation, key string, err error) {
	if callerGone(ctx, err) {
		c.logger.Debug("Cache operation abandoned by caller",
			zap.String("operation", operation),
			zap.String("key", key),
			zap.Error(err),
		)
		return
	}

	CacheErrors.WithLabelValues(operation).Inc()
	c.logger.Warn("Cache operation failed",
		zap.String("operation", operation),
		zap.String("key", key),
		zap.Error(err),
	)

	if c.closing.Load() {
		return
	}
	if c.state.CompareAndSwap(int32(StateReady), int32(StateDegraded)) {
		CacheState.Set(float64(StateDegraded))
		c.logger.Warn("Cache degraded, reconnecting in background", zap.Error(err))
		c.startProbe()
	}
}

// Get decodes the value stored at key into dest. It returns false on a
// missing key, an unavailable backend, or an undecodable value.
func (c *Client) Get(ctx context.Context, key string, dest any) bool {
	if !c.Ready() {
		CacheMisses.WithLabelValues("unavailable").Inc()
		return false
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.WithLabelValues("absent").Inc()
			return false
		}
		if callerGone(ctx, err) {
			CacheMisses.WithLabelValues("cancelled").Inc()
		} else {
			CacheMisses.WithLabelValues("error").Inc()
		}
		c.fail(ctx, "get", key, err)
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		CacheMisses.WithLabelValues("error").Inc()
		CacheErrors.WithLabelValues("decode").Inc()
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}

	CacheHits.Inc()
	return true
}

// Set stores value as JSON under key with the given expiry.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if !c.Ready() || ttl <= 0 {
		return false
	}

	data, err := json.Marshal(value)
	if err != nil {
		CacheErrors.WithLabelValues("encode").Inc()
		c.logger.Warn("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return false
	}

	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		c.fail(ctx, "set", key, err)
		return false
	}

	c.logger.Debug("Cache entry stored", zap.String("key", key), zap.Duration("ttl", ttl))
	return true
}

// Delete removes the given keys.
func (c *Client) Delete(ctx context.Context, keys ...string) bool {
	if !c.Ready() || len(keys) == 0 {
		return false
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.fail(ctx, "delete", strings.Join(keys, ","), err)
		return false
	}
	return true
}

// DeleteByPrefix removes every key starting with prefix and returns how many
// were deleted. SCAN is used instead of KEYS so large keyspaces do not block Redis.
func (c *Client) DeleteByPrefix(ctx context.Context, prefix string) int {
	if !c.Ready() {
		return 0
	}

	pattern := escapeGlob(prefix) + "*"

	// Deleting while the cursor is open can shift unvisited keys behind it,
	// so the scan completes before anything is removed.
	var keys []string
	iter := c.rdb.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.fail(ctx, "scan", pattern, err)
		return 0
	}

	deleted := 0
	for start := 0; start < len(keys); start += scanBatchSize {
		end := min(start+scanBatchSize, len(keys))
		n, err := c.rdb.Del(ctx, keys[start:end]...).Result()
		if err != nil {
			c.fail(ctx, "delete", pattern, err)
			return deleted
		}
		deleted += int(n)
	}

	return deleted
}

// Redis exposes the underlying connection for components that share it,
// such as the rate limiter. It is nil when caching is disabled.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Close stops background reconnects and releases the connection.
func (c *Client) Close() error {
	if !c.closing.CompareAndSwap(false, true) {
		return nil
	}
	close(c.closed)
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
