package evaluate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
)

// Cache stores LLM verdicts keyed by exercise and normalized response.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (Verdict, bool, error)
	Set(ctx context.Context, key string, v Verdict) error
}

// cacheKey hashes the parts of a request that determine its verdict.
func cacheKey(req Request) string {
	h := sha256.New()
	for _, part := range []string{
		string(req.Exercise.Kind),
		req.Exercise.Expected,
		strings.Join(strings.Fields(strings.ToLower(req.Response)), " "),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// MemoryCache is an unbounded in-process Cache.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[string]Verdict
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]Verdict)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Verdict, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, v Verdict) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = v
	return nil
}

// Len returns the number of cached verdicts.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
