package gatherers

import (
	"slices"

	"github.com/kbukum/gatherkit/gather"
	"github.com/kbukum/gatherkit/validation"
)

type fixedWindow[T any] struct {
	buf []T
}

// WindowFixed groups elements into windows of n elements in input order.
// A trailing window holding fewer than n elements is emitted at end of
// input.
func WindowFixed[T any](n int) (*gather.Gatherer[T, []T], error) {
	if err := validation.Positive("windowSize", n); err != nil {
		return nil, err
	}
	return gather.OfSequential(
		func() *fixedWindow[T] { return &fixedWindow[T]{} },
		gather.Greedy(func(w *fixedWindow[T], v T, d gather.Downstream[[]T]) error {
			if w.buf == nil {
				w.buf = make([]T, 0, n)
			}
			w.buf = append(w.buf, v)
			if len(w.buf) == n {
				full := w.buf
				w.buf = nil
				d.Push(full)
			}
			return nil
		}),
		func(w *fixedWindow[T], d gather.Downstream[[]T]) error {
			if len(w.buf) > 0 {
				last := w.buf
				w.buf = nil
				d.Push(last)
			}
			return nil
		},
	)
}

type slidingWindow[T any] struct {
	buf     []T
	emitted bool
}

// WindowSliding emits every run of n consecutive elements. Each window is
// a fresh slice. When the input holds fewer than n elements, the elements
// seen are emitted as one short window at end of input.
func WindowSliding[T any](n int) (*gather.Gatherer[T, []T], error) {
	if err := validation.Positive("windowSize", n); err != nil {
		return nil, err
	}
	return gather.OfSequential(
		func() *slidingWindow[T] { return &slidingWindow[T]{buf: make([]T, 0, n)} },
		gather.Greedy(func(w *slidingWindow[T], v T, d gather.Downstream[[]T]) error {
			if len(w.buf) == n {
				copy(w.buf, w.buf[1:])
				w.buf[n-1] = v
			} else {
				w.buf = append(w.buf, v)
			}
			if len(w.buf) == n {
				w.emitted = true
				d.Push(slices.Clone(w.buf))
			}
			return nil
		}),
		func(w *slidingWindow[T], d gather.Downstream[[]T]) error {
			if !w.emitted && len(w.buf) > 0 {
				d.Push(slices.Clone(w.buf))
			}
			return nil
		},
	)
}
