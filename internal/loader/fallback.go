package loader

import "context"

// FallbackCacheLoader reads from a fast primary (the cache) and, on a miss,
// from a durable secondary whose successful results are handed to populate
// before the caller sees them.
type FallbackCacheLoader[P, S any] struct {
	strategy *StrategyLoader[P, S]
}

// NewFallbackCacheLoader composes primary and secondary. populate is invoked
// with the payload and value of every successful secondary load.
func NewFallbackCacheLoader[P, S any](primary, secondary Loader[P, S], populate func(ctx context.Context, payload P, value S)) *FallbackCacheLoader[P, S] {
	decorated := NewLoaderDecorator[P, S](secondary, func(ctx context.Context, payload P, value S, err error, next func()) {
		if err == nil {
			populate(ctx, payload, value)
		}
		next()
	})
	return &FallbackCacheLoader[P, S]{
		strategy: NewStrategyLoader[P, S](primary, decorated),
	}
}

// Load implements Loader.
func (f *FallbackCacheLoader[P, S]) Load(ctx context.Context, payload P, completion func(S, error)) {
	f.strategy.Load(ctx, payload, completion)
}

// Close releases the underlying strategy.
func (f *FallbackCacheLoader[P, S]) Close() {
	f.strategy.Close()
}
