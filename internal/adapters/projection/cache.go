package projection

import (
	"sync"
	"sync/atomic"

	"github.com/jobrunner/envmap/internal/domain"
)

type cacheKey struct {
	x, y float64
}

// Cache memoizes projected positions keyed by the exact raw pair.
// It is unbounded and safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]domain.Coordinate
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// CacheStats is a snapshot of cache usage.
type CacheStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Size   int    `json:"size"`
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]domain.Coordinate)}
}

// Get returns the projected position of (x, y) if present.
func (c *Cache) Get(x, y float64) (domain.Coordinate, bool) {
	c.mu.RLock()
	v, ok := c.entries[cacheKey{x, y}]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Put stores the projected position of (x, y).
func (c *Cache) Put(x, y float64, v domain.Coordinate) {
	c.mu.Lock()
	c.entries[cacheKey{x, y}] = v
	c.mu.Unlock()
}

// Len returns the number of cached pairs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit, miss and size counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.Len(),
	}
}
