package cache

import (
	"sync"
	"time"
)

type cacheEntry struct {
	body      []byte
	expiresAt time.Time
}

// DocumentCache provides thread-safe caching of downloaded vouchers keyed by
// access key, with TTL support.
type DocumentCache struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]cacheEntry
}

// NewDocumentCache creates a cache whose entries live for ttl. When
// maxEntries is reached, expired entries are purged before inserting and, if
// none expired, the entry closest to expiry is evicted. maxEntries <= 0
// means unbounded.
func NewDocumentCache(ttl time.Duration, maxEntries int) *DocumentCache {
	return &DocumentCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]cacheEntry),
	}
}

// Get returns the cached body if it's still valid.
func (c *DocumentCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.body, true
}

// Set stores body under key. A non-positive TTL disables caching.
func (c *DocumentCache) Set(key string, body []byte) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = cacheEntry{body: body, expiresAt: time.Now().Add(c.ttl)}
}

// Delete removes a cached entry.
func (c *DocumentCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of entries, expired ones included.
func (c *DocumentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *DocumentCache) evictLocked() {
	now := time.Now()
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey, oldest = k, e.expiresAt
		}
	}
	if len(c.entries) >= c.maxEntries && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
