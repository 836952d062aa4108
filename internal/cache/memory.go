package cache

import (
	"container/list"
	"sync"
	"time"
)

// MemoryCache implements the L1 in-memory cache with LRU eviction.
// Capacity is measured against the stored (compressed) size of clips.
type MemoryCache struct {
	capacity int64 // Maximum size in bytes
	size     int64 // Current size in bytes
	codec    *codec

	// LRU implementation
	items    map[string]*list.Element
	eviction *list.List

	mu    sync.Mutex
	stats CacheStats
}

type memoryCacheEntry struct {
	key        string
	value      []byte
	compressed bool
	size       int64
	timestamp  time.Time
}

// NewMemoryCache creates a new memory cache with the specified capacity in bytes.
func NewMemoryCache(capacity int64) *MemoryCache {
	c, err := newCodec(3)
	if err != nil {
		// The default level never fails; fall back to storing raw clips.
		c = nil
	}
	return newMemoryCache(capacity, c)
}

func newMemoryCache(capacity int64, c *codec) *MemoryCache {
	return &MemoryCache{
		capacity: capacity,
		codec:    c,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		stats:    CacheStats{Capacity: capacity},
	}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	entry := elem.Value.(*memoryCacheEntry)
	value, err := c.decode(entry)
	if err != nil {
		c.removeElement(elem)
		c.stats.Misses++
		return nil, false
	}

	// Move to front (most recently used)
	c.eviction.MoveToFront(elem)
	c.stats.Hits++
	c.stats.LastAccess = time.Now()
	return value, true
}

// Put stores a value in the cache.
func (c *MemoryCache) Put(key string, value []byte) error {
	stored, compressed := value, false
	if c.codec != nil {
		stored, compressed = c.codec.encode(value)
	}
	storedSize := int64(len(stored))

	c.mu.Lock()
	defer c.mu.Unlock()

	if storedSize > c.capacity {
		return ErrItemTooLarge
	}

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}

	for c.size+storedSize > c.capacity && c.eviction.Len() > 0 {
		c.evictOldest()
	}

	entry := &memoryCacheEntry{
		key:        key,
		value:      stored,
		compressed: compressed,
		size:       storedSize,
		timestamp:  time.Now(),
	}
	c.items[key] = c.eviction.PushFront(entry)
	c.size += storedSize
	return nil
}

// Delete removes an entry from the cache.
func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
	return nil
}

// Clear removes all entries from the cache.
func (c *MemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.eviction.Init()
	c.size = 0
	return nil
}

// Size returns the current cache size in bytes.
func (c *MemoryCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Contains checks if a key exists in the cache without updating LRU.
func (c *MemoryCache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[key]
	return ok
}

// Stats returns cache statistics.
func (c *MemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = c.size
	stats.ItemCount = int64(len(c.items))
	stats.updateHitRate()
	return stats
}

// Prune removes entries stored before now minus maxAge.
func (c *MemoryCache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	pruned := 0

	// Start from the back (least recently used)
	elem := c.eviction.Back()
	for elem != nil {
		prev := elem.Prev()
		if elem.Value.(*memoryCacheEntry).timestamp.Before(cutoff) {
			c.removeElement(elem)
			pruned++
		}
		elem = prev
	}
	return pruned
}

func (c *MemoryCache) decode(entry *memoryCacheEntry) ([]byte, error) {
	if c.codec == nil {
		return entry.value, nil
	}
	return c.codec.decode(entry.value, entry.compressed)
}

// evictOldest removes the least recently used item (must be called with lock held).
func (c *MemoryCache) evictOldest() {
	if elem := c.eviction.Back(); elem != nil {
		c.removeElement(elem)
		c.stats.Evictions++
	}
}

// removeElement removes an element from the cache (must be called with lock held).
func (c *MemoryCache) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	entry := elem.Value.(*memoryCacheEntry)
	delete(c.items, entry.key)
	c.size -= entry.size
}
