// Package cache provides a TTL cache for fetched evidence documents so
// repeated claim verifications against the same URL don't refetch it.
package cache

import (
	"sync"
	"time"
)

// Entry represents a cached document with metadata
type Entry struct {
	Document  string    `json:"document"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	HitCount  int       `json:"hit_count"`
}

// IsExpired checks if the cache entry has expired
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// Cache is a bounded TTL cache keyed by URL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	maxSize int
	ttl     time.Duration
}

// DefaultTTL is how long a fetched document stays valid.
const DefaultTTL = 5 * time.Minute

// New creates a document cache. maxSize <= 0 selects 100 entries and
// ttl <= 0 selects DefaultTTL.
func New(maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]*Entry),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Get retrieves a cached document by URL.
func (c *Cache) Get(url string) (string, bool) {
	c.mu.RLock()
	entry, exists := c.entries[url]
	c.mu.RUnlock()

	if !exists {
		return "", false
	}

	if entry.IsExpired() {
		c.mu.Lock()
		delete(c.entries, url)
		c.mu.Unlock()
		return "", false
	}

	// Update hit count (needs write lock)
	c.mu.Lock()
	entry.HitCount++
	c.mu.Unlock()

	return entry.Document, true
}

// Set stores a fetched document.
func (c *Cache) Set(url, document string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict expired entries if at capacity
	if len(c.entries) >= c.maxSize {
		c.evictExpiredLocked()
	}

	// If still at capacity, evict the oldest entry
	if len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}

	c.entries[url] = &Entry{
		Document:  document,
		ExpiresAt: time.Now().Add(c.ttl),
		CreatedAt: time.Now(),
	}
}

// Clear removes all entries from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
}

// Size returns the number of entries in the cache
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cache statistics
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	totalHits := 0
	expiredCount := 0
	now := time.Now()

	for _, entry := range c.entries {
		totalHits += entry.HitCount
		if now.After(entry.ExpiresAt) {
			expiredCount++
		}
	}

	return map[string]interface{}{
		"size":          len(c.entries),
		"max_size":      c.maxSize,
		"total_hits":    totalHits,
		"expired_count": expiredCount,
	}
}

// evictExpiredLocked removes all expired entries (must hold write lock)
func (c *Cache) evictExpiredLocked() {
	now := time.Now()
	for url, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, url)
		}
	}
}

// evictOldestLocked removes the oldest entry (must hold write lock)
func (c *Cache) evictOldestLocked() {
	var oldestURL string
	var oldestTime time.Time
	first := true

	for url, entry := range c.entries {
		if first || entry.CreatedAt.Before(oldestTime) {
			oldestURL = url
			oldestTime = entry.CreatedAt
			first = false
		}
	}

	if oldestURL != "" {
		delete(c.entries, oldestURL)
	}
}
