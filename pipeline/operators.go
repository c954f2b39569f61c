package pipeline

import (
	"context"

	"github.com/kbukum/gatherkit/forkjoin"
	"github.com/kbukum/gatherkit/gather"
	"github.com/kbukum/gatherkit/gatherers"
)

// Map transforms each value using fn. An error from fn fails the run.
func Map[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return stage(p, func(ctx context.Context) (*gather.Gatherer[I, O], error) {
		return gather.Stateless(gather.Greedy(func(_ gather.Void, v I, d gather.Downstream[O]) error {
			o, err := fn(ctx, v)
			if err != nil {
				return err
			}
			d.Push(o)
			return nil
		}))
	})
}

// FlatMap transforms each value into an iterator and flattens the results.
// Each iterator is closed once drained.
func FlatMap[I, O any](p *Pipeline[I], fn func(context.Context, I) (Iterator[O], error)) *Pipeline[O] {
	return stage(p, func(ctx context.Context) (*gather.Gatherer[I, O], error) {
		return gather.Stateless(gather.Greedy(func(_ gather.Void, v I, d gather.Downstream[O]) (err error) {
			it, err := fn(ctx, v)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := it.Close(); err == nil {
					err = cerr
				}
			}()
			for !d.IsRejecting() {
				o, ok, err := it.Next(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				d.Push(o)
			}
			return nil
		}))
	})
}

// Filter keeps only values that satisfy the predicate.
func Filter[T any](p *Pipeline[T], fn func(T) bool) *Pipeline[T] {
	return stage(p, func(context.Context) (*gather.Gatherer[T, T], error) {
		return gatherers.Filter(fn)
	})
}

// Tap calls fn as a side-effect for each value, then passes the value through unchanged.
// Use for logging, metrics, or mid-pipeline publishing.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return stage(p, func(ctx context.Context) (*gather.Gatherer[T, T], error) {
		return gather.Stateless(gather.Greedy(func(_ gather.Void, v T, d gather.Downstream[T]) error {
			if err := fn(ctx, v); err != nil {
				return err
			}
			d.Push(v)
			return nil
		}))
	})
}

// TapEach applies fns[i] to element i of each []T as a side-effect, then
// passes the slice through unchanged. Useful after FanOut.
func TapEach[T any](p *Pipeline[[]T], fns ...func(context.Context, T) error) *Pipeline[[]T] {
	return stage(p, func(ctx context.Context) (*gather.Gatherer[[]T, []T], error) {
		return gather.Stateless(gather.Greedy(func(_ gather.Void, vs []T, d gather.Downstream[[]T]) error {
			for i, v := range vs {
				if i >= len(fns) {
					break
				}
				if err := fns[i](ctx, v); err != nil {
					return err
				}
			}
			d.Push(vs)
			return nil
		}))
	})
}

// FanOut applies every fn to each value concurrently and emits the
// results as a slice in the order of fns. The first error in that order
// fails the run.
func FanOut[I, O any](p *Pipeline[I], fns ...func(context.Context, I) (O, error)) *Pipeline[[]O] {
	return stage(p, func(ctx context.Context) (*gather.Gatherer[I, []O], error) {
		return gather.Stateless(gather.Greedy(func(_ gather.Void, v I, d gather.Downstream[[]O]) error {
			tasks := make([]*forkjoin.Task[O], len(fns))
			for i, fn := range fns {
				tasks[i] = forkjoin.Fork(func() (O, error) { return fn(ctx, v) })
			}
			out := make([]O, len(fns))
			errs := make([]error, len(fns))
			for i, t := range tasks {
				out[i], errs[i] = t.Wait()
			}
			if err := forkjoin.Combine(errs...); err != nil {
				return err
			}
			d.Push(out)
			return nil
		}))
	})
}

// Reduce accumulates all values into a single result.
// The pipeline yields exactly one value: the final accumulator.
func Reduce[T, R any](p *Pipeline[T], init R, fn func(R, T) R) *Pipeline[R] {
	return stage(p, func(context.Context) (*gather.Gatherer[T, R], error) {
		return gatherers.Fold(func() R { return init }, fn)
	})
}

// Scan emits the running accumulation after every value.
func Scan[T, R any](p *Pipeline[T], init R, fn func(R, T) R) *Pipeline[R] {
	return stage(p, func(context.Context) (*gather.Gatherer[T, R], error) {
		return gatherers.Scan(func() R { return init }, fn)
	})
}

// Limit keeps the first n values and stops pulling input after them.
func Limit[T any](p *Pipeline[T], n int) *Pipeline[T] {
	return stage(p, func(context.Context) (*gather.Gatherer[T, T], error) {
		return gatherers.Limit[T](n)
	})
}

// TakeWhile keeps values up to the first one that fails fn.
func TakeWhile[T any](p *Pipeline[T], fn func(T) bool) *Pipeline[T] {
	return stage(p, func(context.Context) (*gather.Gatherer[T, T], error) {
		return gatherers.TakeWhile(fn)
	})
}

// Distinct drops values equal to one already emitted.
func Distinct[T comparable](p *Pipeline[T]) *Pipeline[T] {
	return stage(p, func(context.Context) (*gather.Gatherer[T, T], error) {
		return gatherers.Distinct[T]()
	})
}
