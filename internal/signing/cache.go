package signing

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is the process-local replay cache: a mutex-guarded map of
// signature to expiry. Stale entries are harmless once expired, so they
// are purged lazily on lookup rather than by a background sweeper.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryCache constructs an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Seen purges expired entries, then reports whether signature is present.
func (c *MemoryCache) Seen(_ context.Context, signature string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for sig, expiry := range c.entries {
		if !expiry.After(now) {
			delete(c.entries, sig)
		}
	}

	expiry, ok := c.entries[signature]
	return ok && expiry.After(now), nil
}

// Remember stores signature until now+ttl.
func (c *MemoryCache) Remember(_ context.Context, signature string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[signature] = c.now().Add(ttl)
	return nil
}

// Len reports the number of live entries. Used by tests.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
