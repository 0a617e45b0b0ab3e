// Package cache provides the process-local, identity-keyed entry cache that
// sits in front of the durable store.
package cache

import (
	"errors"
	"slices"
	"sync"
)

// ErrUninitialised is returned by reads and removals on a cache that has not
// been populated since construction or the last Clear. It is distinct from an
// initialised but empty cache and from an identifier that is not present.
var ErrUninitialised = errors.New("cache: uninitialised")

// Identifiable is implemented by values cached by identity.
type Identifiable[K comparable] interface {
	Identity() K
}

// InMemoryCache holds an ordered collection of items keyed by identity.
//
// Concurrency model: a single mutex guards the collection, so every operation
// is atomic with respect to the others and concurrent callers are queued.
type InMemoryCache[K comparable, E Identifiable[K]] struct {
	mu          sync.Mutex
	items       []E
	initialised bool
}

// New creates an uninitialised cache.
func New[K comparable, E Identifiable[K]]() *InMemoryCache[K, E] {
	return &InMemoryCache[K, E]{}
}

// Retrieve returns the cached items that pass filter, ordered by less.
// Either function may be nil: a nil filter keeps every item and a nil less
// keeps insertion order. Sorting is stable.
func (c *InMemoryCache[K, E]) Retrieve(filter func(E) bool, less func(a, b E) bool) ([]E, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialised {
		return nil, ErrUninitialised
	}
	return Select(c.items, filter, less), nil
}

// RetrieveAll returns a copy of every cached item in insertion order.
func (c *InMemoryCache[K, E]) RetrieveAll() ([]E, error) {
	return c.Retrieve(nil, nil)
}

// RetrieveByID returns the first item with the given identity. A missing
// item on an initialised cache is reported by ok == false, not by an error.
func (c *InMemoryCache[K, E]) RetrieveByID(id K) (item E, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialised {
		return item, false, ErrUninitialised
	}
	if i := c.indexOf(id); i >= 0 {
		return c.items[i], true, nil
	}
	return item, false, nil
}

// Cache upserts item. An uninitialised cache becomes initialised holding only
// item; otherwise an item with the same identity is replaced in place, or item
// is appended.
func (c *InMemoryCache[K, E]) Cache(item E) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialised {
		c.items = []E{item}
		c.initialised = true
		return
	}
	if i := c.indexOf(item.Identity()); i >= 0 {
		c.items[i] = item
		return
	}
	c.items = append(c.items, item)
}

// CacheAll replaces the whole collection with items.
func (c *InMemoryCache[K, E]) CacheAll(items []E) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = slices.Clone(items)
	if c.items == nil {
		c.items = []E{}
	}
	c.initialised = true
}

// Remove deletes every item with the given identity. Removing an absent
// identity from an initialised cache is not an error.
func (c *InMemoryCache[K, E]) Remove(id K) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialised {
		return ErrUninitialised
	}
	c.items = slices.DeleteFunc(c.items, func(it E) bool {
		return it.Identity() == id
	})
	return nil
}

// Clear discards the collection and returns the cache to the uninitialised state.
func (c *InMemoryCache[K, E]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.initialised = false
}

// Initialised reports whether the cache currently holds a collection.
func (c *InMemoryCache[K, E]) Initialised() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialised
}

// Select returns a new slice holding the items that pass filter, stably
// ordered by less. Either function may be nil.
func Select[E any](items []E, filter func(E) bool, less func(a, b E) bool) []E {
	out := make([]E, 0, len(items))
	for _, it := range items {
		if filter == nil || filter(it) {
			out = append(out, it)
		}
	}
	if less != nil {
		slices.SortStableFunc(out, func(a, b E) int {
			switch {
			case less(a, b):
				return -1
			case less(b, a):
				return 1
			default:
				return 0
			}
		})
	}
	return out
}

// indexOf must be called with mu held.
func (c *InMemoryCache[K, E]) indexOf(id K) int {
	return slices.IndexFunc(c.items, func(it E) bool {
		return it.Identity() == id
	})
}
