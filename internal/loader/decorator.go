package loader

import "context"

// Decoration is run on a decoratee's result. The caller's completion is held
// back until next is invoked and then receives the original result unchanged.
type Decoration[P, S any] func(ctx context.Context, payload P, value S, err error, next func())

// LoaderDecorator inserts a side effect between a loader and its caller.
type LoaderDecorator[P, S any] struct {
	decoratee Loader[P, S]
	decorate  Decoration[P, S]
}

// NewLoaderDecorator wraps decoratee with decorate.
func NewLoaderDecorator[P, S any](decoratee Loader[P, S], decorate Decoration[P, S]) *LoaderDecorator[P, S] {
	return &LoaderDecorator[P, S]{decoratee: decoratee, decorate: decorate}
}

// Load implements Loader.
func (d *LoaderDecorator[P, S]) Load(ctx context.Context, payload P, completion func(S, error)) {
	d.decoratee.Load(ctx, payload, func(value S, err error) {
		d.decorate(ctx, payload, value, err, func() {
			completion(value, err)
		})
	})
}
