package geocode

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// cacheKey returns SHA-256 hex of the normalized query for cache lookup.
func cacheKey(kind, query string) string {
	normalized := kind + "|" + strings.ToLower(strings.Join(strings.Fields(query), " "))
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// resultCache is a bounded in-memory cache. Insertion order doubles as
// the eviction order, so the oldest entry goes first when full.
type resultCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]Result
	order   []string
}

func newResultCache(maxSize int) *resultCache {
	if maxSize <= 0 {
		maxSize = 4096
	}
	return &resultCache{
		maxSize: maxSize,
		entries: make(map[string]Result, maxSize),
	}
}

func (c *resultCache) get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[key]
	if ok {
		zap.L().Debug("geocode cache hit", zap.String("key", key[:min(12, len(key))]))
	}
	return r, ok
}

func (c *resultCache) put(key string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.order) >= c.maxSize {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = r
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
