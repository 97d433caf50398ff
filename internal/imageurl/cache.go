package imageurl

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache memoizes normalized addresses keyed by the trimmed input.
type Cache struct {
	lru *expirable.LRU[string, string]
}

// NewCache creates a cache holding up to size entries for ttl each.
// A zero ttl keeps entries until they are evicted by size.
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 1
	}

	return &Cache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

// Get returns the cached value for key.
func (c *Cache) Get(key string) (string, bool) {
	return c.lru.Get(key)
}

// Add stores value under key.
func (c *Cache) Add(key, value string) {
	c.lru.Add(key, value)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.lru.Purge()
}
