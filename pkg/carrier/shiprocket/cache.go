package shiprocket

import (
	"fmt"
	"sync"
	"time"

	"github.com/parceldesk/shipbridge/pkg/carrier"
)

// estimateCache is a bounded, thread-safe cache of serviceability lookups.
// Eviction is strictly by insertion order: when full, the oldest-inserted
// entry goes, regardless of how recently it was read. This is deliberately
// not an LRU; the eviction order is part of the documented behavior.
// Entries also expire after a fixed TTL even if never evicted.
type estimateCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]*estimateEntry
	order    []string // insertion order, oldest first
}

type estimateEntry struct {
	estimate  carrier.Estimate
	expiresAt time.Time
}

func newEstimateCache(capacity int, ttl time.Duration) *estimateCache {
	if capacity <= 0 {
		capacity = 256
	}
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &estimateCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*estimateEntry, capacity),
	}
}

// estimateKey builds the cache key from the full lookup tuple. Two lookups
// differing only in COD flag or weight are distinct lane quotes.
func estimateKey(pickup, delivery string, weightKG float64, cod bool) string {
	return fmt.Sprintf("%s|%s|%.3f|%t", pickup, delivery, weightKG, cod)
}

// get returns the cached estimate if present and not expired.
func (c *estimateCache) get(key string, now time.Time) (carrier.Estimate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return carrier.Estimate{}, false
	}
	if now.After(e.expiresAt) {
		delete(c.entries, key)
		c.dropFromOrder(key)
		return carrier.Estimate{}, false
	}
	return e.estimate, true
}

// put stores an estimate, evicting the oldest-inserted entry when full.
// Re-inserting an existing key refreshes its value and TTL but keeps its
// original slot in the eviction order.
func (c *estimateCache) put(key string, est carrier.Estimate, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.capacity && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = &estimateEntry{estimate: est, expiresAt: now.Add(c.ttl)}
}

// dropFromOrder removes a key from the insertion-order slice. Called with the
// lock held.
func (c *estimateCache) dropFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// len reports the number of live entries, expired or not.
func (c *estimateCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
