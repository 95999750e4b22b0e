// Package cache memoizes tokenizer work across prompt assemblies.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the number of encodings kept when none is configured.
const DefaultCapacity = 4096

// LRUCache maps text to its token encoding, evicting the least recently used entry.
type LRUCache struct {
	capacity int
	mu       sync.Mutex

	cache map[string]*entry
	order *list.List // front is most recently used

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key     string
	tokens  []int
	element *list.Element
}

// NewLRUCache creates a new LRU cache.
func NewLRUCache(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &LRUCache{
		capacity: capacity,
		cache:    make(map[string]*entry),
		order:    list.New(),
	}
}

// Get returns a copy of the cached encoding of key.
func (c *LRUCache) Get(key string) ([]int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cache[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	c.order.MoveToFront(e.element)
	return append([]int(nil), e.tokens...), true
}

// Set stores a copy of tokens under key.
func (c *LRUCache) Set(key string, tokens []int) {
	tokens = append([]int(nil), tokens...)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.cache[key]; ok {
		e.tokens = tokens
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.cache) >= c.capacity {
		c.evictOldest()
	}

	e := &entry{key: key, tokens: tokens}
	e.element = c.order.PushFront(e)
	c.cache[key] = e
}

// Size returns the number of entries in the cache.
func (c *LRUCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Clear removes all entries from the cache.
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*entry)
	c.order.Init()
}

// Stats returns hit and miss counts since creation.
func (c *LRUCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *LRUCache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	e := oldest.Value.(*entry)
	c.order.Remove(e.element)
	delete(c.cache, e.key)
}
