// Package detected holds the most recent classification results.
package detected

import (
	"container/list"
	"sync"

	"devscope/internal/models"
)

// DefaultCapacity is the number of results kept.
const DefaultCapacity = 100

// Cache is a bounded insertion-ordered map of results keyed by token
// address. Eviction is FIFO: replacing a key keeps its original position.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element
}

// NewCache creates a cache. A non-positive capacity uses DefaultCapacity.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Put inserts or replaces the result for its token address.
func (c *Cache) Put(r models.DetectedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[r.TokenAddress]; ok {
		el.Value = r
		return
	}

	c.items[r.TokenAddress] = c.order.PushBack(r)
	for c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(models.DetectedResult).TokenAddress)
	}
}

// Get returns the result for a token address.
func (c *Cache) Get(tokenAddress string) (models.DetectedResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[tokenAddress]
	if !ok {
		return models.DetectedResult{}, false
	}
	return el.Value.(models.DetectedResult), true
}

// List returns every result, most recently inserted first.
func (c *Cache) List() []models.DetectedResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.DetectedResult, 0, c.order.Len())
	for el := c.order.Back(); el != nil; el = el.Prev() {
		out = append(out, el.Value.(models.DetectedResult))
	}
	return out
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
}
