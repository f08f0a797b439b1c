// Package dedupe implements SPEC_FULL §4.11: rejecting resubmission of an
// order id that already reached a terminal state and was evicted from the
// live book, with a clear DuplicateOrderId error instead of silently
// treating it as new. Backed by patrickmn/go-cache (a direct teacher
// dependency, previously wired only to now-deleted auth/session code),
// whose built-in TTL expiry gives bounded memory regardless of order
// volume for free.
package dedupe

import (
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/abdoElHodaky/auctioncore/internal/ids"
)

// Cache tracks terminal order ids for SPEC_FULL's configured TTL window
// (engine.dedupe_ttl, default 10m).
type Cache struct {
	c *cache.Cache
}

// New constructs a Cache with the given TTL and a cleanup sweep at twice
// the TTL, following go-cache's own recommended janitor interval.
func New(ttl time.Duration) *Cache {
	return &Cache{c: cache.New(ttl, ttl*2)}
}

// MarkTerminal records id as having reached a terminal state, starting
// its TTL countdown. Called on every terminal transition (filled,
// cancelled, rejected, expired).
func (c *Cache) MarkTerminal(id ids.OrderID) {
	c.c.SetDefault(id.String(), struct{}{})
}

// Seen reports whether id has already reached a terminal state within the
// retention window.
func (c *Cache) Seen(id ids.OrderID) bool {
	_, found := c.c.Get(id.String())
	return found
}
