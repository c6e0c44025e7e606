package network

import (
	"sync"
	"time"
)

type dedupeEntry struct {
	msgType string
	expiry  time.Time // zero means the entry never expires
}

// dedupeCache remembers MESSAGE_IDs so re-broadcast copies of a
// message are processed once. Entries for messages that carry a TTL
// expire with the message; all others are retained for the lifetime
// of the process.
type dedupeCache struct {
	mu   sync.Mutex
	seen map[string]dedupeEntry
	now  func() time.Time
}

func newDedupeCache() *dedupeCache {
	return &dedupeCache{
		seen: make(map[string]dedupeEntry),
		now:  time.Now,
	}
}

// Observe records an ID and reports whether it was already known.
func (c *dedupeCache) Observe(id, msgType string, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, dup := c.seen[id]; dup {
		return true
	}

	entry := dedupeEntry{msgType: msgType}
	if ttl > 0 {
		entry.expiry = c.now().Add(ttl)
	}
	c.seen[id] = entry
	return false
}

// Sweep drops entries whose message TTL has elapsed and returns how
// many were removed.
func (c *dedupeCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for id, entry := range c.seen {
		if !entry.expiry.IsZero() && now.After(entry.expiry) {
			delete(c.seen, id)
			removed++
		}
	}
	return removed
}

func (c *dedupeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
