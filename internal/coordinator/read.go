// Package coordinator mediates between the in-memory entry cache and the
// durable store: reads fall back to the store and repopulate the cache,
// writes mutate the cache and then back up the whole collection.
package coordinator

import (
	"context"
	"log/slog"
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/starford/notenest/internal/cache"
	"github.com/starford/notenest/internal/loader"
)

// RetrieveFunc reads the full durable collection.
type RetrieveFunc[E any] func(ctx context.Context) ([]E, error)

type readOptions struct {
	ordered       bool
	fallbackQuery bool
	logger        *slog.Logger
}

// ReadOption configures a ReadCacheCoordinator.
type ReadOption func(*readOptions)

// WithOrdering makes reads honour the payload's sort order. Without it the
// order half of the payload is ignored and insertion order is returned.
func WithOrdering() ReadOption {
	return func(o *readOptions) { o.ordered = true }
}

// WithFallbackQuery applies the payload's filter (and, with WithOrdering,
// its order) to results delivered from the durable store. Without it a
// fallback read delivers exactly what the store returned.
func WithFallbackQuery() ReadOption {
	return func(o *readOptions) { o.fallbackQuery = true }
}

// WithReadLogger sets the logger used for fallback diagnostics.
func WithReadLogger(logger *slog.Logger) ReadOption {
	return func(o *readOptions) { o.logger = logger }
}

// ReadCacheCoordinator answers reads from the cache and falls back to the
// durable store when the cache cannot answer (including when it has never
// been populated). A successful fallback repopulates the cache with the full
// durable collection before the caller is answered.
type ReadCacheCoordinator[K comparable, P cache.Query[E], E cache.Identifiable[K]] struct {
	cache    *cache.InMemoryCache[K, E]
	retrieve RetrieveFunc[E]
	loader   *loader.FallbackCacheLoader[P, []E]
	group    singleflight.Group
	opts     readOptions
}

// NewReadCacheCoordinator creates a read coordinator over a shared cache.
func NewReadCacheCoordinator[K comparable, P cache.Query[E], E cache.Identifiable[K]](c *cache.InMemoryCache[K, E], retrieve RetrieveFunc[E], opts ...ReadOption) *ReadCacheCoordinator[K, P, E] {
	r := &ReadCacheCoordinator[K, P, E]{
		cache:    c,
		retrieve: retrieve,
		opts:     readOptions{logger: slog.Default()},
	}
	for _, opt := range opts {
		opt(&r.opts)
	}

	primary := loader.FromFunc(func(_ context.Context, payload P) ([]E, error) {
		return cache.RetrieveQuery[K, E](r.cache, payload, r.opts.ordered)
	})
	secondary := loader.FromFunc(func(ctx context.Context, _ P) ([]E, error) {
		r.opts.logger.Debug("read: cache miss, loading durable store")
		return r.retrieveShared(ctx)
	})
	r.loader = loader.NewFallbackCacheLoader(primary, secondary, func(_ context.Context, _ P, items []E) {
		r.cache.CacheAll(items)
	})
	return r
}

// Load implements loader.Loader. completion receives the cache result, or the
// durable result after a fallback; it fails only when both tiers fail.
func (r *ReadCacheCoordinator[K, P, E]) Load(ctx context.Context, payload P, completion func([]E, error)) {
	r.loader.Load(ctx, payload, func(items []E, err error) {
		if err != nil {
			r.opts.logger.Warn("read: durable retrieval failed", slog.String("error", err.Error()))
			completion(nil, err)
			return
		}
		if r.opts.fallbackQuery {
			var less func(a, b E) bool
			if r.opts.ordered {
				less = payload.Precedes
			}
			items = cache.Select(items, payload.Matches, less)
		}
		completion(items, nil)
	})
}

// Fetch is the blocking form of Load.
func (r *ReadCacheCoordinator[K, P, E]) Fetch(ctx context.Context, payload P) ([]E, error) {
	return loader.Await[P, []E](ctx, r, payload)
}

// Close stops delivering completions for loads still in flight.
func (r *ReadCacheCoordinator[K, P, E]) Close() {
	r.loader.Close()
}

// retrieveShared collapses concurrent durable reads into one call. Each
// caller gets its own copy of the result.
//
// The shared read runs detached from the cancellation of whichever caller
// started it; a caller whose own ctx ends stops waiting with ctx.Err().
func (r *ReadCacheCoordinator[K, P, E]) retrieveShared(ctx context.Context) ([]E, error) {
	ch := r.group.DoChan("retrieve", func() (interface{}, error) {
		return r.retrieve(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]E)), nil
	}
}
