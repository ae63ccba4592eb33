package tutor

import (
	"container/list"
	"sync"

	"github.com/zeebo/blake3"
)

// Cache memoizes pipeline results keyed by the BLAKE3 hash of the input
// text, language, and model. Live-preview clients re-submit the same draft
// repeatedly while typing; the cache keeps those round trips off the LLM.
//
// Eviction is LRU. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	max     int
	entries map[[32]byte]*list.Element
	order   *list.List
}

type cacheEntry struct {
	key    [32]byte
	result *Result
}

// NewCache returns a Cache that holds at most max results. max must be
// positive.
func NewCache(max int) *Cache {
	if max <= 0 {
		max = 1
	}
	return &Cache{
		max:     max,
		entries: make(map[[32]byte]*list.Element, max),
		order:   list.New(),
	}
}

// cacheKey derives the content-addressed key for one pipeline input.
func cacheKey(text, language, model string) [32]byte {
	h := blake3.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(language))
	h.Write([]byte{0})
	h.Write([]byte(model))
	var key [32]byte
	h.Sum(key[:0])
	return key
}

// get returns the cached result for key, or nil.
func (c *Cache) get(key [32]byte) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).result
}

// put stores result under key, evicting the least recently used entry when
// the cache is full.
func (c *Cache) put(key [32]byte, result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).result = result
		c.order.MoveToFront(el)
		return
	}
	if c.order.Len() >= c.max {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, result: result})
}

// Len reports the number of cached results.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
