package segment

import (
	"container/list"
	"sync"
)

// Cache is an LRU cache of Split results keyed by the word's simple and surface forms.
// Verses repeat the same words often enough that resolving a surah hits it constantly.
type Cache struct {
	capacity int
	entries  map[cacheKey]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheKey struct {
	simple  string
	surface string
}

type cacheEntry struct {
	key   cacheKey
	value []Segment
}

// NewCache creates a cache holding at most capacity words. A capacity below one
// disables caching.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		entries:  make(map[cacheKey]*list.Element),
		lru:      list.New(),
	}
}

// Split returns the cached segmentation of the word, computing it on a miss.
// A nil cache just calls Split.
func (c *Cache) Split(simple, surface string) []Segment {
	if c == nil || c.capacity < 1 {
		return Split(simple, surface)
	}
	key := cacheKey{simple: simple, surface: surface}
	if segs, ok := c.get(key); ok {
		return segs
	}
	segs := Split(simple, surface)
	c.set(key, segs)
	return clone(segs)
}

// Len returns the number of cached words.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *Cache) get(key cacheKey) ([]Segment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		return clone(elem.Value.(*cacheEntry).value), true
	}
	return nil, false
}

func (c *Cache) set(key cacheKey, value []Segment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, value: value})
	c.entries[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
}

// clone keeps callers from mutating cached slices.
func clone(segs []Segment) []Segment {
	out := make([]Segment, len(segs))
	copy(out, segs)
	return out
}
