package cache

// Filter decides whether an item is part of a read.
type Filter[E any] interface {
	Matches(item E) bool
}

// Sorter orders the items of a read.
type Sorter[E any] interface {
	Precedes(a, b E) bool
}

// Query is the capability a read payload must offer.
type Query[E any] interface {
	Filter[E]
	Sorter[E]
}

// All is a Query that keeps every item in insertion order.
type All[E any] struct{}

// Matches implements Filter.
func (All[E]) Matches(E) bool { return true }

// Precedes implements Sorter.
func (All[E]) Precedes(E, E) bool { return false }

// RetrieveQuery reads through q. When ordered is false the sort half of q is
// ignored and insertion order is kept.
func RetrieveQuery[K comparable, E Identifiable[K]](c *InMemoryCache[K, E], q Query[E], ordered bool) ([]E, error) {
	var less func(a, b E) bool
	if ordered {
		less = q.Precedes
	}
	return c.Retrieve(q.Matches, less)
}
