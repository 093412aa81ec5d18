package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// LRU implements a weighted least-recently-used cache.
// All methods are safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	weigh     func(V) int64
	items     map[K]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type entry[K comparable, V any] struct {
	key    K
	value  V
	weight int64
}

// NewLRU creates a cache holding at most capacity weight. A capacity of 0
// or less means unbounded. A nil weigh counts every entry as 1.
func NewLRU[K comparable, V any](capacity int64, weigh func(V) int64) *LRU[K, V] {
	if weigh == nil {
		weigh = func(V) int64 { return 1 }
	}
	return &LRU[K, V]{
		capacity:  capacity,
		weigh:     weigh,
		items:     make(map[K]*list.Element),
		evictList: list.New(),
	}
}

// Get returns a cached value and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry[K, V]).value, true
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set caches a value, evicting older entries as needed. It reports whether
// the value was cached.
func (c *LRU[K, V]) Set(key K, v V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	w := c.weigh(v)
	if c.capacity > 0 && w > c.capacity {
		if ent, ok := c.items[key]; ok {
			c.removeElement(ent)
		}
		return false
	}

	if ent, ok := c.items[key]; ok {
		e := ent.Value.(*entry[K, V])
		c.size += w - e.weight
		e.value, e.weight = v, w
		c.evictList.MoveToFront(ent)
		c.evict()
		return true
	}

	c.items[key] = c.evictList.PushFront(&entry[K, V]{key: key, value: v, weight: w})
	c.size += w
	c.evict()
	return true
}

// Delete removes key. It reports whether it was present.
func (c *LRU[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.items[key]
	if ok {
		c.removeElement(ent)
	}
	return ok
}

// Keys returns the cached keys, most recently used first.
func (c *LRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]K, 0, len(c.items))
	for e := c.evictList.Front(); e != nil; e = e.Next() {
		keys = append(keys, e.Value.(*entry[K, V]).key)
	}
	return keys
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Size returns the total weight of the entries.
func (c *LRU[K, V]) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns the hit and miss counts.
func (c *LRU[K, V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LRU[K, V]) evict() {
	if c.capacity <= 0 {
		return
	}
	for c.size > c.capacity {
		element := c.evictList.Back()
		if element == nil {
			break
		}
		c.removeElement(element)
	}
}

func (c *LRU[K, V]) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*entry[K, V])
	delete(c.items, kv.key)
	c.size -= kv.weight
}
