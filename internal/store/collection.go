package store

import (
	"slices"
	"sync"
)

// collection is a versioned, observable slice. Subscribers are called outside
// the lock with a copy of the items that they share and must not modify.
type collection[T any] struct {
	id    func(T) string
	clone func(T) T

	mu      sync.RWMutex
	items   []T
	version uint64

	subMu   sync.Mutex
	subs    map[int]func([]T)
	nextSub int
}

func newCollection[T any](id func(T) string, clone func(T) T) *collection[T] {
	return &collection[T]{
		id:    id,
		clone: clone,
		items: []T{},
		subs:  make(map[int]func([]T)),
	}
}

// Version changes whenever the items do.
func (c *collection[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Snapshot returns a copy of the items and the version it reflects.
func (c *collection[T]) Snapshot() ([]T, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyLocked(), c.version
}

func (c *collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Items returns a copy of the items.
func (c *collection[T]) Items() []T {
	items, _ := c.Snapshot()
	return items
}

// Get returns a copy of the item with the given id.
func (c *collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, it := range c.items {
		if c.id(it) == id {
			return c.clone(it), true
		}
	}
	var zero T
	return zero, false
}

// Subscribe calls fn with the current items and again after every change.
// The returned function removes the subscription.
func (c *collection[T]) Subscribe(fn func([]T)) func() {
	c.subMu.Lock()
	key := c.nextSub
	c.nextSub++
	c.subs[key] = fn
	c.subMu.Unlock()

	fn(c.Items())

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, key)
			c.subMu.Unlock()
		})
	}
}

// mutate applies fn to the items under the write lock and notifies
// subscribers. fn returns the new slice.
func (c *collection[T]) mutate(fn func(items []T) []T) {
	c.mu.Lock()
	c.items = fn(c.items)
	c.version++
	snapshot := c.copyLocked()
	c.mu.Unlock()

	c.notify(snapshot)
}

func (c *collection[T]) replaceAll(items []T) {
	c.mutate(func([]T) []T {
		out := make([]T, len(items))
		for i, it := range items {
			out[i] = c.clone(it)
		}
		return out
	})
}

// replace swaps the item with the given id for it. It reports false when no
// such item exists.
func (c *collection[T]) replace(id string, it T) bool {
	found := false
	c.mutate(func(items []T) []T {
		for i := range items {
			if c.id(items[i]) == id {
				items[i] = c.clone(it)
				found = true
				break
			}
		}
		return items
	})
	return found
}

// remove deletes the item with the given id and returns it with its index.
func (c *collection[T]) remove(id string) (T, int, bool) {
	var (
		removed T
		index   = -1
	)
	c.mutate(func(items []T) []T {
		for i := range items {
			if c.id(items[i]) == id {
				removed, index = items[i], i
				return slices.Delete(items, i, i+1)
			}
		}
		return items
	})
	return removed, index, index >= 0
}

// insert puts it at index, clamped to the collection bounds.
func (c *collection[T]) insert(index int, it T) {
	c.mutate(func(items []T) []T {
		index = max(0, min(index, len(items)))
		return slices.Insert(items, index, c.clone(it))
	})
}

func (c *collection[T]) copyLocked() []T {
	out := make([]T, len(c.items))
	for i, it := range c.items {
		out[i] = c.clone(it)
	}
	return out
}

func (c *collection[T]) notify(items []T) {
	c.subMu.Lock()
	subs := make([]func([]T), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()

	for _, fn := range subs {
		fn(items)
	}
}
