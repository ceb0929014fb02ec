package pipeline

import (
	"container/list"
	"sync"
	"time"
)

// Cache defaults. Overridable at construction.
const (
	DefaultCacheMaxEntries = 128
	DefaultCacheMaxBytes   = 8 << 20
)

type cacheEntry struct {
	key       string
	resp      *Response
	expiresAt time.Time
	size      int
}

// Cache is a bounded TTL response cache with insertion-order eviction: when
// either the entry cap or the byte budget is exceeded, the oldest-inserted
// entries are dropped first. Entries are immutable; Get hands out copies.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	maxBytes   int
	bytes      int
	order      *list.List // front = oldest inserted
	entries    map[string]*list.Element
}

// NewCache creates a cache bounded by maxEntries and maxBytes. Values < 1
// fall back to the defaults.
func NewCache(maxEntries, maxBytes int) *Cache {
	if maxEntries < 1 {
		maxEntries = DefaultCacheMaxEntries
	}
	if maxBytes < 1 {
		maxBytes = DefaultCacheMaxBytes
	}
	return &Cache{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

// Get returns a deep copy of the cached response for key, dropping and
// missing on expired entries.
func (c *Cache) Get(key string) (*Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.remove(elem)
		return nil, false
	}

	return entry.resp.Clone(), true
}

// Set stores resp under key for ttl. Replacing an existing key re-inserts it
// at the back of the eviction order. An entry that alone exceeds the byte
// budget is not stored.
func (c *Cache) Set(key string, resp *Response, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	size := resp.approxSize() + len(key)
	if size > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.remove(elem)
	}

	entry := &cacheEntry{
		key:       key,
		resp:      resp,
		expiresAt: time.Now().Add(ttl),
		size:      size,
	}
	c.entries[key] = c.order.PushBack(entry)
	c.bytes += size

	for (c.order.Len() > c.maxEntries || c.bytes > c.maxBytes) && c.order.Len() > 0 {
		c.remove(c.order.Front())
	}
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// SizeBytes reports the approximate bytes held.
func (c *Cache) SizeBytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
	c.bytes = 0
}

// remove must be called with the lock held.
func (c *Cache) remove(elem *list.Element) {
	entry := c.order.Remove(elem).(*cacheEntry)
	delete(c.entries, entry.key)
	c.bytes -= entry.size
}
