package ranker

import (
	"container/list"
	"sync"
)

// DefaultIntentCacheSize is the default capacity for an IntentCache.
const DefaultIntentCacheSize = 512

// IntentCache is a size-bounded LRU cache of parsed query intents,
// keyed by the raw query string. The collaborator that calls the
// query understanding service owns an instance of this cache instead
// of a process-wide unbounded map: capacity is fixed at construction
// and the least recently used intent is evicted when full.
// Thread-safe.
type IntentCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List               // front = most recently used
	entries  map[string]*list.Element // query -> element in order
}

type intentEntry struct {
	query  string
	intent Intent
}

// NewIntentCache creates a cache holding at most capacity intents.
// Non-positive capacities use DefaultIntentCacheSize.
func NewIntentCache(capacity int) *IntentCache {
	if capacity <= 0 {
		capacity = DefaultIntentCacheSize
	}
	return &IntentCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

// Get returns the cached intent for a query and whether it was
// present. A hit refreshes the entry's recency.
func (c *IntentCache) Get(query string) (Intent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[query]
	if !ok {
		return Intent{}, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*intentEntry).intent, true
}

// Put stores a parsed intent, evicting the least recently used entry
// when the cache is at capacity.
func (c *IntentCache) Put(query string, intent Intent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[query]; ok {
		elem.Value.(*intentEntry).intent = intent
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*intentEntry).query)
		}
	}
	c.entries[query] = c.order.PushFront(&intentEntry{query: query, intent: intent})
}

// Len returns the number of cached intents.
func (c *IntentCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
