package trustweight

import (
	"container/list"
	"context"
	"sync"
)

// DefaultCacheSize is the default capacity for a BoundedCache.
const DefaultCacheSize = 4096

// BoundedCache is an explicit, size-bounded LRU cache of resolved
// trust weights. It exists so collaborators that resolve weights on
// the hot path do not grow a process-wide unbounded map: capacity is
// fixed at construction and the least recently used entry is evicted
// when full. Thread-safe.
type BoundedCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List               // front = most recently used
	entries  map[string]*list.Element // userID -> element in order
}

type cacheEntry struct {
	userID string
	weight float64
}

// NewBoundedCache creates a cache holding at most capacity entries.
// Non-positive capacities use DefaultCacheSize.
func NewBoundedCache(capacity int) *BoundedCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &BoundedCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

// Get returns the cached weight for a user and whether it was present.
// A hit refreshes the entry's recency.
func (c *BoundedCache) Get(userID string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[userID]
	if !ok {
		return 0, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).weight, true
}

// Put stores a weight, evicting the least recently used entry when the
// cache is at capacity.
func (c *BoundedCache) Put(userID string, weight float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[userID]; ok {
		elem.Value.(*cacheEntry).weight = weight
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).userID)
		}
	}
	c.entries[userID] = c.order.PushFront(&cacheEntry{userID: userID, weight: weight})
}

// Len returns the number of cached entries.
func (c *BoundedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// CachingResolver wraps a Resolver with a BoundedCache so repeated
// correction runs only hit the backing store for cold users.
type CachingResolver struct {
	inner Resolver
	cache *BoundedCache
}

// NewCachingResolver wraps inner with the given cache. A nil cache
// gets a default-sized one.
func NewCachingResolver(inner Resolver, cache *BoundedCache) *CachingResolver {
	if cache == nil {
		cache = NewBoundedCache(DefaultCacheSize)
	}
	return &CachingResolver{inner: inner, cache: cache}
}

// BatchWeights serves cached users locally and resolves only the
// misses through the inner resolver. An inner error is returned as-is
// with whatever cached weights were found, so callers can still
// default the rest.
func (r *CachingResolver) BatchWeights(ctx context.Context, userIDs []string) (map[string]float64, error) {
	result := make(map[string]float64, len(userIDs))
	var misses []string
	for _, id := range userIDs {
		if w, ok := r.cache.Get(id); ok {
			result[id] = w
		} else {
			misses = append(misses, id)
		}
	}

	if len(misses) == 0 {
		return result, nil
	}

	resolved, err := r.inner.BatchWeights(ctx, misses)
	if err != nil {
		return result, err
	}
	for id, w := range resolved {
		result[id] = w
		r.cache.Put(id, w)
	}
	return result, nil
}
