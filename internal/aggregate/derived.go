package aggregate

import "sync"

// Source is a versioned collection. The version changes whenever the
// contents do.
type Source[T any] interface {
	Version() uint64
	Snapshot() ([]T, uint64)
}

// Derived recomputes fn over its source on read, reusing the previous result
// while the source version is unchanged.
type Derived[T, R any] struct {
	src Source[T]
	fn  func([]T) R

	mu      sync.Mutex
	valid   bool
	version uint64
	value   R
}

func NewDerived[T, R any](src Source[T], fn func([]T) R) *Derived[T, R] {
	return &Derived[T, R]{src: src, fn: fn}
}

// Get returns fn applied to the current source contents.
func (d *Derived[T, R]) Get() R {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.valid && d.src.Version() == d.version {
		return d.value
	}

	items, version := d.src.Snapshot()
	d.value = d.fn(items)
	d.version = version
	d.valid = true
	return d.value
}
