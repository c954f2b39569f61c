package pipeline

import (
	"context"

	"github.com/kbukum/gatherkit/errors"
	"github.com/kbukum/gatherkit/gather"
)

// Runnable is a fully-configured pipeline ready to execute.
type Runnable struct {
	run func(ctx context.Context) error
}

// Run executes the pipeline until completion or context cancellation.
func (r *Runnable) Run(ctx context.Context) error {
	return r.run(ctx)
}

// Drain creates a Runnable that sends each value to sink in encounter
// order. The first sink error stops the run and is returned.
func Drain[T any](p *Pipeline[T], sink func(context.Context, T) error) *Runnable {
	return &Runnable{
		run: func(ctx context.Context) error {
			var sinkErr error
			err := p.eval(ctx, p.settings, gather.AsAny(identity[T]()), gather.DownstreamFunc(func(v any) bool {
				if sinkErr = sink(ctx, cast[T](v)); sinkErr != nil {
					return false
				}
				return true
			}))
			if err != nil {
				return err
			}
			return sinkErr
		},
	}
}

// ForEach pulls all values and calls fn for each. Convenience wrapper around Drain.
func ForEach[T any](ctx context.Context, p *Pipeline[T], fn func(context.Context, T) error) error {
	return Drain(p, fn).Run(ctx)
}

// CollectWith runs the pipeline into the collector c. In parallel mode
// partitions are collected separately and merged with c.Combiner when it
// is set.
func CollectWith[T, C, X any](ctx context.Context, p *Pipeline[T], c gather.Collector[T, C, X]) (X, error) {
	var (
		out X
		got bool
	)
	g, err := gather.Collecting(c)
	if err != nil {
		return out, err
	}
	err = p.eval(ctx, p.settings, gather.AsAny(g), gather.DownstreamFunc(func(v any) bool {
		out, got = cast[X](v), true
		return true
	}))
	if err != nil {
		return out, err
	}
	if !got {
		return out, errors.IllegalState("collector produced no result")
	}
	return out, nil
}

// Collect runs the pipeline and returns all values as a slice.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	return CollectWith(ctx, p, gather.ToSlice[T]())
}

// Count runs the pipeline and returns the number of values it produced.
func Count[T any](ctx context.Context, p *Pipeline[T]) (int64, error) {
	return CollectWith(ctx, p, gather.Counting[T]())
}

func identity[T any]() *gather.Gatherer[T, T] {
	return gather.Must(gather.Stateless(gather.Greedy(func(_ gather.Void, v T, d gather.Downstream[T]) error {
		d.Push(v)
		return nil
	})))
}

func cast[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}
