package imaging

import (
	"container/list"
	"sync"
)

// DefaultCacheSize is the number of thumbnails kept by NewThumbnailCache(0).
const DefaultCacheSize = 100

// ThumbnailCache is a bounded map that evicts the earliest inserted entry
// once it holds more than its capacity. Reads do not refresh an entry.
type ThumbnailCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type cacheEntry struct {
	key   string
	value string
}

func NewThumbnailCache(capacity int) *ThumbnailCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &ThumbnailCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

func (c *ThumbnailCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return "", false
	}
	return el.Value.(*cacheEntry).value, true
}

// Put stores value under key. Replacing an existing key keeps its position.
func (c *ThumbnailCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).value = value
		return
	}

	c.entries[key] = c.order.PushBack(&cacheEntry{key: key, value: value})
	for c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *ThumbnailCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *ThumbnailCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
}
