// Package loader provides a callback-based request/response contract and
// the strategy and decorator combinators used to compose two-tier reads.
package loader

import "context"

// Loader answers a payload by invoking completion exactly once, either
// synchronously or from another goroutine.
type Loader[P, S any] interface {
	Load(ctx context.Context, payload P, completion func(S, error))
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc[P, S any] func(ctx context.Context, payload P, completion func(S, error))

// Load implements Loader.
func (f LoaderFunc[P, S]) Load(ctx context.Context, payload P, completion func(S, error)) {
	f(ctx, payload, completion)
}

// LoadUnit calls a payload-less loader.
func LoadUnit[S any](ctx context.Context, l Loader[struct{}, S], completion func(S, error)) {
	l.Load(ctx, struct{}{}, completion)
}

// FromFunc wraps a blocking function as a Loader that completes synchronously.
func FromFunc[P, S any](fn func(ctx context.Context, payload P) (S, error)) Loader[P, S] {
	return LoaderFunc[P, S](func(ctx context.Context, payload P, completion func(S, error)) {
		completion(fn(ctx, payload))
	})
}

// Await runs l and blocks until its completion fires or ctx is done.
// A completion that arrives after ctx is done is discarded.
func Await[P, S any](ctx context.Context, l Loader[P, S], payload P) (S, error) {
	type result struct {
		value S
		err   error
	}
	done := make(chan result, 1)
	l.Load(ctx, payload, func(value S, err error) {
		select {
		case done <- result{value: value, err: err}:
		default:
		}
	})

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero S
		return zero, ctx.Err()
	}
}
