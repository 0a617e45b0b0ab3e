package loader

import (
	"context"
	"sync/atomic"
)

// StrategyLoader tries a primary loader and falls back to a secondary one
// with the same payload when the primary fails. Primary errors are never
// reported; when both fail the caller sees the secondary's error.
type StrategyLoader[P, S any] struct {
	primary   Loader[P, S]
	secondary Loader[P, S]
	released  atomic.Bool
}

// NewStrategyLoader creates a StrategyLoader.
func NewStrategyLoader[P, S any](primary, secondary Loader[P, S]) *StrategyLoader[P, S] {
	return &StrategyLoader[P, S]{primary: primary, secondary: secondary}
}

// Load implements Loader.
func (s *StrategyLoader[P, S]) Load(ctx context.Context, payload P, completion func(S, error)) {
	s.primary.Load(ctx, payload, func(value S, err error) {
		if s.released.Load() {
			return
		}
		if err == nil {
			completion(value, nil)
			return
		}
		s.secondary.Load(ctx, payload, func(value S, err error) {
			if s.released.Load() {
				return
			}
			completion(value, err)
		})
	})
}

// Close releases the loader. Completions that arrive afterwards are dropped
// without calling back; this is best-effort suppression, not a guarantee that
// in-flight delegates stop.
func (s *StrategyLoader[P, S]) Close() {
	s.released.Store(true)
}
