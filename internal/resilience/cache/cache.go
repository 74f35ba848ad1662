// Package cache provides a process-wide TTL cache for extraction results.
// Entries are keyed by a deterministic fingerprint of the target resource,
// the operation name, and the operation parameters, so concurrent and
// repeated fetches of the same data deduplicate to a single upstream call
// within the TTL window.
package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// entry is a single cached value with its absolute expiry time.
// Entries are never mutated in place; a re-set replaces the whole entry.
type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a mutex-guarded in-memory TTL cache.
//
// It is intentionally a single shared map rather than a sharded structure:
// entries are small and lookups are never on a hot latency path relative to
// the network calls they guard. There is no eviction policy beyond TTL
// expiry (no LRU, no size bound), which is a known limitation.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// New creates an empty cache using the system clock.
func New() *Cache {
	return NewWithClock(time.Now)
}

// NewWithClock creates an empty cache with an injectable clock for tests.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Key derives the fingerprint for a (resource, operation, params) triple.
// Params are sorted by name before hashing, so two calls with identical
// content but different insertion order produce the same key.
func Key(resource, operation string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	h := xxhash.New()
	_, _ = h.WriteString(resource)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(operation)
	for _, name := range names {
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(name)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(params[name])
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Get returns the cached value for the triple, or ok=false when no entry
// exists or the entry has expired. An expired entry is removed on lookup.
func (c *Cache) Get(resource, operation string, params map[string]string) (any, bool) {
	key := Key(resource, operation, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores the value for the triple with the caller-supplied TTL,
// overwriting any previous entry for the same key.
func (c *Cache) Set(resource, operation string, params map[string]string, value any, ttl time.Duration) {
	key := Key(resource, operation, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Len returns the number of entries currently stored, including entries that
// have expired but not yet been purged by a lookup.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
