// internal/app/store/cache/cache.go
//
// Package cache is the process-local read-through cache in front of docstore
// list reads. Entries carry no version or etag: staleness is bounded by the
// TTL and by explicit per-collection invalidation on writes, so a read right
// after a write from another process is not guaranteed fresh until the TTL
// elapses. That window is accepted.
package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/classdeck/classdeck/internal/app/store/docstore"
)

// DefaultTTL bounds how stale a cached list may get.
const DefaultTTL = 5 * time.Minute

type entry struct {
	docs       []bson.Raw
	insertedAt time.Time
}

// Cache memoizes query results keyed by (collection, filters, order, limit).
// It is an injected instance, never a package singleton, and takes its clock
// from the constructor so tests can drive the TTL deterministically.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

// New builds a cache. A ttl <= 0 becomes DefaultTTL; a nil clock uses
// time.Now.
func New(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now, entries: make(map[string]entry)}
}

// Key builds the deterministic cache key for a query. Filters are sorted by
// field so two queries that differ only in filter order share an entry. The
// collection name leads the key; Invalidate relies on that prefix.
func Key(collection string, q docstore.Query) string {
	parts := make([]string, 0, len(q.Filters))
	for _, f := range q.Filters {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Field, f.Value))
	}
	sort.Strings(parts)

	order := ""
	if q.Order != nil {
		order = q.Order.Field
		if q.Order.Desc {
			order += ":desc"
		}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = docstore.DefaultLimit
	}

	return fmt.Sprintf("%s|%s|%s|%d", collection, strings.Join(parts, "&"), order, limit)
}

// Get returns the cached documents for key, or a miss. An entry at or past
// the TTL is evicted and reported as a miss, never returned.
func (c *Cache) Get(key string) ([]bson.Raw, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.now().Sub(e.insertedAt) >= c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// refreshed the entry.
		if cur, still := c.entries[key]; still && cur.insertedAt.Equal(e.insertedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.docs, true
}

// Set stores docs under key with the current timestamp.
func (c *Cache) Set(key string, docs []bson.Raw) {
	c.mu.Lock()
	c.entries[key] = entry{docs: docs, insertedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate purges every entry for the collection. Writes call this
// unconditionally before returning, whatever fields changed.
func (c *Cache) Invalidate(collection string) {
	prefix := collection + "|"
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// InvalidateAll clears the cache.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len reports the number of live entries (expired entries still count until
// observed); used by tests.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
