package segment

import "sync"

// sliceCache is a bounded map of segmentation results that evicts in
// insertion order once full.
type sliceCache struct {
	mu      sync.Mutex
	size    int
	order   []string
	entries map[string][]Slice
}

func newSliceCache(size int) *sliceCache {
	return &sliceCache{
		size:    size,
		entries: make(map[string][]Slice),
	}
}

func (c *sliceCache) get(key string) ([]Slice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slices, ok := c.entries[key]
	return slices, ok
}

func (c *sliceCache) put(key string, slices []Slice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = slices
		return
	}

	for len(c.order) >= c.size {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.order = append(c.order, key)
	c.entries[key] = slices
}

func (c *sliceCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *sliceCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.entries = make(map[string][]Slice)
}
