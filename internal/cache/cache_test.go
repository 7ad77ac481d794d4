package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestCache(t *testing.T) {
	c := New(10, 5*time.Minute)

	c.Set("https://example.com/a", "document a")
	doc, ok := c.Get("https://example.com/a")
	if !ok {
		t.Error("Expected to find cached document")
	}
	if doc != "document a" {
		t.Errorf("Expected document a, got %q", doc)
	}

	_, ok = c.Get("https://example.com/missing")
	if ok {
		t.Error("Expected not to find uncached URL")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := New(10, 1*time.Millisecond)

	c.Set("https://example.com/a", "document a")
	time.Sleep(10 * time.Millisecond)

	_, ok := c.Get("https://example.com/a")
	if ok {
		t.Error("Expected expired entry to be removed")
	}
	if c.Size() != 0 {
		t.Errorf("Expected expired entry evicted on read, size = %d", c.Size())
	}
}

func TestCacheEvictsOldestAtCapacity(t *testing.T) {
	c := New(3, 5*time.Minute)

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("https://example.com/%d", i), "doc")
		time.Sleep(time.Millisecond)
	}
	c.Set("https://example.com/new", "doc")

	if c.Size() != 3 {
		t.Errorf("Expected size 3 after eviction, got %d", c.Size())
	}
	if _, ok := c.Get("https://example.com/0"); ok {
		t.Error("Expected oldest entry to be evicted")
	}
	if _, ok := c.Get("https://example.com/new"); !ok {
		t.Error("Expected newest entry to be present")
	}
}

func TestCacheClear(t *testing.T) {
	c := New(10, 5*time.Minute)
	c.Set("https://example.com/a", "doc")
	c.Set("https://example.com/b", "doc")

	c.Clear()

	if c.Size() != 0 {
		t.Errorf("Expected empty cache after Clear, size = %d", c.Size())
	}
}

func TestCacheStats(t *testing.T) {
	c := New(10, 5*time.Minute)
	c.Set("https://example.com/a", "doc")
	c.Get("https://example.com/a")
	c.Get("https://example.com/a")

	stats := c.Stats()
	if stats["size"] != 1 {
		t.Errorf("Expected size 1, got %v", stats["size"])
	}
	if stats["total_hits"] != 2 {
		t.Errorf("Expected 2 hits, got %v", stats["total_hits"])
	}
	if stats["max_size"] != 10 {
		t.Errorf("Expected max_size 10, got %v", stats["max_size"])
	}
}

func TestCacheDefaults(t *testing.T) {
	c := New(0, 0)
	if c.maxSize != 100 {
		t.Errorf("Expected default max size 100, got %d", c.maxSize)
	}
	if c.ttl != DefaultTTL {
		t.Errorf("Expected default TTL, got %v", c.ttl)
	}
}
