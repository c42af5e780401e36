package credentials

import (
	"sync"

	"github.com/seanshin0214/kakaotalk-mcp/internal/types"
)

// Cache holds the single working credential set discovered for one
// installation. It is owned by the decryptor instance that created it; there
// is no package-level state. Under parallel search the first committed value
// wins and later commits are discarded.
type Cache struct {
	mu    sync.RWMutex
	creds *types.Credentials
}

// NewCache creates an empty credential cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the cached credentials, if any.
func (c *Cache) Get() (types.Credentials, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.creds == nil {
		return types.Credentials{}, false
	}
	return *c.creds, true
}

// Commit stores creds if the cache is still empty and reports whether the
// value was stored. The compare-and-set keeps exactly one winner when
// multiple search paths succeed concurrently.
func (c *Cache) Commit(creds types.Credentials) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.creds != nil {
		return false
	}
	stored := creds
	c.creds = &stored
	return true
}

// Invalidate drops the cached credentials so the next lookup searches again.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = nil
}
