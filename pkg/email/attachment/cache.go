package attachment

import (
	"container/list"
	"context"
	"sync"
)

// DefaultCacheSize is the byte budget of a CachedSource built with a non-positive size.
const DefaultCacheSize int64 = 64 << 20

type cacheEntry struct {
	descriptor string
	file       *File
}

// CachedSource keeps recently loaded files in memory, bounded by the total
// size of their data. Campaigns attach the same file to every recipient, so
// the underlying source is hit once per descriptor until it is evicted.
//
// Returned files share their Data slice with the cache and must not be modified.
type CachedSource struct {
	next     Source
	maxBytes int64

	mu       sync.Mutex
	size     int64
	items    map[string]*list.Element
	eviction *list.List
}

// NewCachedSource wraps next with a least recently used cache.
func NewCachedSource(next Source, maxBytes int64) *CachedSource {
	if maxBytes <= 0 {
		maxBytes = DefaultCacheSize
	}
	return &CachedSource{
		next:     next,
		maxBytes: maxBytes,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
}

// Load returns the cached file or loads it from the wrapped source.
// Errors are not cached.
func (c *CachedSource) Load(ctx context.Context, descriptor string) (*File, error) {
	if f, ok := c.get(descriptor); ok {
		return f, nil
	}

	f, err := c.next.Load(ctx, descriptor)
	if err != nil {
		return nil, err
	}
	c.put(descriptor, f)
	return copyFile(f), nil
}

// Len reports the number of cached files.
func (c *CachedSource) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

// Size reports the cached bytes.
func (c *CachedSource) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Purge drops every cached file.
func (c *CachedSource) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.eviction.Init()
	c.size = 0
}

func (c *CachedSource) get(descriptor string) (*File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[descriptor]
	if !ok {
		return nil, false
	}
	c.eviction.MoveToFront(elem)
	return copyFile(elem.Value.(*cacheEntry).file), true
}

func (c *CachedSource) put(descriptor string, f *File) {
	n := int64(len(f.Data))
	if n > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[descriptor]; ok {
		c.removeElement(elem)
	}
	c.items[descriptor] = c.eviction.PushFront(&cacheEntry{descriptor: descriptor, file: f})
	c.size += n

	for c.size > c.maxBytes {
		c.removeElement(c.eviction.Back())
	}
}

// Must be called with lock held.
func (c *CachedSource) removeElement(elem *list.Element) {
	entry := c.eviction.Remove(elem).(*cacheEntry)
	delete(c.items, entry.descriptor)
	c.size -= int64(len(entry.file.Data))
}

func copyFile(f *File) *File {
	cp := *f
	return &cp
}
