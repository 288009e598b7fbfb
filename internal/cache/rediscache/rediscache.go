// Package rediscache stores answer verdicts in Redis so repeated answers to
// the same exercise skip the LLM across sessions and processes.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/lexi/internal/evaluate"
)

// KeyPrefix namespaces verdict keys.
const KeyPrefix = "lexi:verdict:"

// DefaultTTL is how long a verdict stays cached.
const DefaultTTL = 7 * 24 * time.Hour

// ErrConnection is returned when Redis cannot be reached at startup.
var ErrConnection = errors.New("rediscache: connection failed")

// Cache is an evaluate.Cache backed by Redis string keys holding JSON.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Open parses a redis:// URL, connects and pings.
func Open(ctx context.Context, url string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return New(client, ttl), nil
}

// New wraps an existing client. A non-positive ttl means DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Get(ctx context.Context, key string) (evaluate.Verdict, bool, error) {
	data, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return evaluate.Verdict{}, false, nil
	}
	if err != nil {
		return evaluate.Verdict{}, false, fmt.Errorf("get verdict: %w", err)
	}

	var v evaluate.Verdict
	if err := json.Unmarshal(data, &v); err != nil {
		return evaluate.Verdict{}, false, fmt.Errorf("decode verdict: %w", err)
	}
	return v, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, v evaluate.Verdict) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode verdict: %w", err)
	}
	if err := c.client.Set(ctx, KeyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set verdict: %w", err)
	}
	return nil
}

var _ evaluate.Cache = (*Cache)(nil)
