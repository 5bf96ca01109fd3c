package cache

import (
	"context"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultMemoryEntries bounds a MemoryCache created with a non-positive size.
const DefaultMemoryEntries = 256

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is an in-process LRU cache. The serve command uses it for the
// lifetime of the process.
type MemoryCache struct {
	mu      sync.Mutex
	entries *orderedmap.OrderedMap[string, memoryEntry]
	max     int
	now     func() time.Time
}

// NewMemoryCache returns a cache holding at most maxEntries entries. The
// least recently used entry is evicted first.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryEntries
	}
	return &MemoryCache{
		entries: orderedmap.New[string, memoryEntry](),
		max:     maxEntries,
		now:     time.Now,
	}
}

// Get implements Cache. A hit marks the entry as most recently used.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.entries.Delete(key)
		return nil, false, nil
	}
	_ = c.entries.MoveToBack(key)
	return e.data, true, nil
}

// Set implements Cache. The stored slice is a copy of data.
func (c *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	e := memoryEntry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Set(key, e)
	_ = c.entries.MoveToBack(key)
	for c.entries.Len() > c.max {
		c.entries.Delete(c.entries.Oldest().Key)
	}
	return nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Delete(key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Close drops all entries.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = orderedmap.New[string, memoryEntry]()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
