package engine

import (
	"sync"

	"github.com/homescout-au/suburbscore/internal/model"
)

// resultCache memoizes safety ratings for one snapshot version. A swap
// installs a fresh cache, so entries can never outlive the snapshot that
// produced them.
type resultCache struct {
	version string

	mu     sync.RWMutex
	safety map[string]model.SafetyRating
}

func newResultCache(version string) *resultCache {
	return &resultCache{
		version: version,
		safety:  make(map[string]model.SafetyRating),
	}
}

func (c *resultCache) getSafety(areaID string) (model.SafetyRating, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.safety[areaID]
	return r, ok
}

func (c *resultCache) putSafety(areaID string, r model.SafetyRating) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.safety[areaID] = r
}

// Len reports the number of cached ratings, for monitoring.
func (c *resultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.safety)
}

// CacheStats reports cache occupancy for the current snapshot.
func (e *Engine) CacheStats() (version string, entries int) {
	c := e.state.Load().cache
	return c.version, c.Len()
}
