package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client and fails safe: a missing or unreachable Redis
// behaves like an empty cache. A nil *Client is valid and caches nothing.
type Client struct {
	client *redis.Client
}

// New creates a Redis-backed client. An empty addr disables caching.
func New(addr, password string, db int) *Client {
	if addr == "" {
		return nil
	}
	return &Client{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// Ping reports whether Redis is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("cache disabled")
	}
	return c.client.Ping(ctx).Err()
}

// GetJSON decodes the cached value at key into dst. It reports false on a
// miss, on any Redis error and on undecodable payloads.
func (c *Client) GetJSON(ctx context.Context, key string, dst any) bool {
	if c == nil || c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil or connectivity: both are misses
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// SetJSON stores value at key with ttl, ignoring Redis errors.
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, payload, ttl).Err()
}

// Delete removes a key, ignoring Redis errors.
func (c *Client) Delete(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, key).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
