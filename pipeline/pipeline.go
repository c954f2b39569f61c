package pipeline

import (
	"context"
	"iter"

	"github.com/kbukum/gatherkit/gather"
	"github.com/kbukum/gatherkit/spliterator"
)

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Pipeline is a lazy description of a stream evaluation. No work happens
// until a terminal such as Collect, Drain or ForEach runs it.
type Pipeline[T any] struct {
	settings
	// eval runs the pipeline with tail appended to its stages.
	eval func(ctx context.Context, s settings, tail *gather.Gatherer[T, any], down gather.Downstream[any]) error
}

type settings struct {
	engine *gather.Engine
	mode   gather.Mode
}

func (s settings) engineOrDefault() *gather.Engine {
	if s.engine != nil {
		return s.engine
	}
	return gather.DefaultEngine()
}

// Parallel returns a copy of p evaluated in parallel mode.
func (p *Pipeline[T]) Parallel() *Pipeline[T] {
	return p.with(func(s *settings) { s.mode = gather.Parallel })
}

// Sequential returns a copy of p evaluated on the calling goroutine.
func (p *Pipeline[T]) Sequential() *Pipeline[T] {
	return p.with(func(s *settings) { s.mode = gather.Sequential })
}

// WithEngine returns a copy of p evaluated by e instead of the default engine.
func (p *Pipeline[T]) WithEngine(e *gather.Engine) *Pipeline[T] {
	return p.with(func(s *settings) { s.engine = e })
}

// Mode reports how p will be evaluated.
func (p *Pipeline[T]) Mode() gather.Mode { return p.mode }

func (p *Pipeline[T]) with(fn func(*settings)) *Pipeline[T] {
	q := *p
	fn(&q.settings)
	return &q
}

// --- Constructors ---

// source builds a pipeline over the spliterator returned by open, which
// receives the options matching the batch bounds of the evaluating engine.
// The returned close function, when not nil, runs after evaluation and its
// error is reported when evaluation itself succeeded.
func source[T any](open func(ctx context.Context, batch spliterator.Option) (spliterator.Spliterator[T], func() error)) *Pipeline[T] {
	return &Pipeline[T]{
		eval: func(ctx context.Context, s settings, tail *gather.Gatherer[T, any], down gather.Downstream[any]) error {
			e := s.engineOrDefault()
			cfg := e.Config()
			src, closeFn := open(ctx, spliterator.WithBatch(cfg.BatchUnit, cfg.MaxBatch))
			err := gather.Evaluate(ctx, e, src, tail, down, s.mode)
			if closeFn != nil {
				if cerr := closeFn(); err == nil {
					err = cerr
				}
			}
			return err
		},
	}
}

// FromSlice creates a pipeline from a slice of values.
func FromSlice[T any](items []T) *Pipeline[T] {
	return FromSpliterator(func() spliterator.Spliterator[T] { return spliterator.OfSlice(items) })
}

// Range creates a pipeline over the integers in [lo, hi).
func Range(lo, hi int) *Pipeline[int] {
	return FromSpliterator(func() spliterator.Spliterator[int] { return spliterator.Range(lo, hi) })
}

// FromSpliterator creates a pipeline whose every run evaluates a fresh
// spliterator from open.
func FromSpliterator[T any](open func() spliterator.Spliterator[T]) *Pipeline[T] {
	return source(func(context.Context, spliterator.Option) (spliterator.Spliterator[T], func() error) {
		return open(), nil
	})
}

// FromSeq creates a pipeline from an iterator function. The sequence is
// stopped once evaluation ends, so it may be infinite when a later stage
// short-circuits. Split batches follow the engine configuration unless
// opts override them.
func FromSeq[T any](seq iter.Seq[T], opts ...spliterator.Option) *Pipeline[T] {
	return source(func(_ context.Context, batch spliterator.Option) (spliterator.Spliterator[T], func() error) {
		src := spliterator.FromSeq(seq, append([]spliterator.Option{batch}, opts...)...)
		return src, func() error {
			src.Close()
			return nil
		}
	})
}

// From creates a pipeline from an existing Iterator. The iterator can only
// be consumed once and is closed when the pipeline finishes.
func From[T any](it Iterator[T]) *Pipeline[T] {
	return FromFunc(func(context.Context) Iterator[T] { return it })
}

// FromFunc creates a pipeline from a factory that produces an Iterator on
// every run. The first error returned by Next ends the input and fails the
// run.
func FromFunc[T any](fn func(ctx context.Context) Iterator[T]) *Pipeline[T] {
	return source(func(ctx context.Context, batch spliterator.Option) (spliterator.Spliterator[T], func() error) {
		it := fn(ctx)
		var nextErr error
		src := spliterator.FromNext(func() (T, bool) {
			v, ok, err := it.Next(ctx)
			if err != nil {
				nextErr = err
				return v, false
			}
			return v, ok
		}, batch)
		return src, func() error {
			cerr := it.Close()
			if nextErr != nil {
				return nextErr
			}
			return cerr
		}
	})
}

// Gather appends g to the stages of p.
func Gather[T, R any](p *Pipeline[T], g *gather.Gatherer[T, R]) *Pipeline[R] {
	return stage(p, func(context.Context) (*gather.Gatherer[T, R], error) { return g, nil })
}

// stage appends the gatherer returned by build. build runs once per
// evaluation with the evaluation context.
func stage[T, R any](p *Pipeline[T], build func(ctx context.Context) (*gather.Gatherer[T, R], error)) *Pipeline[R] {
	return &Pipeline[R]{
		settings: p.settings,
		eval: func(ctx context.Context, s settings, tail *gather.Gatherer[R, any], down gather.Downstream[any]) error {
			g, err := build(ctx)
			if err != nil {
				return err
			}
			fused, err := gather.AndThen(g, tail)
			if err != nil {
				return err
			}
			return p.eval(ctx, s, fused, down)
		},
	}
}
