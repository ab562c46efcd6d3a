package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/stockgpt/stockgpt/internal/models"
)

type entry struct {
	quote     models.Quote
	fetchedAt time.Time
}

// QuoteCache is a process-wide TTL cache of resolved quotes. Entries
// are only ever superseded by a newer write; there is no eviction
// because the key space (a handful of symbols times period/interval
// combinations) stays small. Concurrent writers to the same key race
// last-writer-wins, which the staleness tolerance already masks.
type QuoteCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	enabled bool
	now     func() time.Time
}

func NewQuoteCache(ttl time.Duration, enabled bool) *QuoteCache {
	return &QuoteCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		enabled: enabled,
		now:     time.Now,
	}
}

// Key builds the cache key for one logical quote request.
func Key(symbol, period, interval string) string {
	return fmt.Sprintf("%s_%s_%s", symbol, period, interval)
}

// Get returns the cached quote for key, or false when no entry exists
// or the entry has aged past the TTL.
func (c *QuoteCache) Get(key string) (models.Quote, bool) {
	if !c.enabled {
		return models.Quote{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		return models.Quote{}, false
	}
	return e.quote, true
}

// Put stores a quote, overwriting any previous entry for the key.
func (c *QuoteCache) Put(key string, q models.Quote) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{quote: q, fetchedAt: c.now()}
}

// Len reports the number of stored entries, stale ones included.
func (c *QuoteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
