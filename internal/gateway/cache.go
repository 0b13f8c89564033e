package gateway

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value    any
	created  time.Time
	accessed time.Time
}

// ResponseCache is a bounded TTL cache for generation results. Expiry is
// lazy: an entry past its TTL is removed on the read that finds it, never by
// a background sweep. When full, the least recently accessed entry is
// evicted, with ties broken by insertion order.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

// NewResponseCache creates a cache holding at most maxSize entries, each
// valid for ttl after creation.
//
// Precondition: maxSize must be >= 1; ttl must be positive.
func NewResponseCache(maxSize int, ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached value for key. An entry past its TTL is removed and
// reported as a miss. A hit refreshes the entry's last access time.
func (c *ResponseCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.created) > c.ttl {
		c.remove(key)
		return nil, false
	}
	e.accessed = c.now()
	return e.value, true
}

// Set stores value under key. Inserting a new key into a full cache evicts
// the least recently accessed entry first. Setting an existing key replaces
// its value and resets its creation time.
func (c *ResponseCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.created = c.now()
		e.accessed = c.now()
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictLRU()
	}

	c.entries[key] = &cacheEntry{
		value:    value,
		created:  c.now(),
		accessed: c.now(),
	}
	c.order = append(c.order, key)
}

// Len returns the number of entries currently held, including any that have
// expired but not yet been read.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	c.order = nil
}

// evictLRU removes the entry with the oldest last access time. The order
// slice is scanned oldest insertion first so ties resolve deterministically.
func (c *ResponseCache) evictLRU() {
	if len(c.order) == 0 {
		return
	}
	victim := c.order[0]
	oldest := c.entries[victim].accessed
	for _, key := range c.order[1:] {
		if e := c.entries[key]; e.accessed.Before(oldest) {
			victim = key
			oldest = e.accessed
		}
	}
	c.remove(victim)
}

func (c *ResponseCache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
