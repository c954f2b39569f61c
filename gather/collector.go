package gather

import (
	"strings"

	"github.com/samber/lo"

	"github.com/kbukum/gatherkit/validation"
)

// Collector is a mutable reduction: Supplier creates a container,
// Accumulator folds an element into it, Combiner merges two containers in
// encounter order and Finisher produces the result. A nil Combiner makes
// the reduction sequential.
type Collector[T, C, X any] struct {
	Supplier    func() C
	Accumulator func(C, T) C
	Combiner    func(C, C) C
	Finisher    func(C) X
}

// ToSlice collects elements into a slice in encounter order.
func ToSlice[T any]() Collector[T, []T, []T] {
	return Collector[T, []T, []T]{
		Supplier:    func() []T { return nil },
		Accumulator: func(acc []T, v T) []T { return append(acc, v) },
		Combiner:    func(l, r []T) []T { return append(l, r...) },
		Finisher:    func(acc []T) []T { return acc },
	}
}

// Counting counts elements.
func Counting[T any]() Collector[T, int64, int64] {
	return Collector[T, int64, int64]{
		Supplier:    func() int64 { return 0 },
		Accumulator: func(n int64, _ T) int64 { return n + 1 },
		Combiner:    func(l, r int64) int64 { return l + r },
		Finisher:    func(n int64) int64 { return n },
	}
}

// Joining concatenates strings with sep between them.
func Joining(sep string) Collector[string, []string, string] {
	return Collector[string, []string, string]{
		Supplier:    func() []string { return nil },
		Accumulator: func(acc []string, v string) []string { return append(acc, v) },
		Combiner:    func(l, r []string) []string { return append(l, r...) },
		Finisher:    func(acc []string) string { return strings.Join(acc, sep) },
	}
}

// Reducing folds elements with op starting from identity. op must be
// associative and identity must be its neutral element.
func Reducing[T any](identity T, op func(T, T) T) Collector[T, T, T] {
	return Collector[T, T, T]{
		Supplier:    func() T { return identity },
		Accumulator: op,
		Combiner:    op,
		Finisher:    func(v T) T { return v },
	}
}

// GroupingBy groups elements by key and reduces each group with downstream.
func GroupingBy[T any, K comparable, C, X any](key func(T) K, downstream Collector[T, C, X]) Collector[T, map[K]C, map[K]X] {
	var combiner func(map[K]C, map[K]C) map[K]C
	if downstream.Combiner != nil {
		combiner = func(l, r map[K]C) map[K]C {
			for k, rc := range r {
				if lc, ok := l[k]; ok {
					l[k] = downstream.Combiner(lc, rc)
				} else {
					l[k] = rc
				}
			}
			return l
		}
	}
	return Collector[T, map[K]C, map[K]X]{
		Supplier: func() map[K]C { return make(map[K]C) },
		Accumulator: func(groups map[K]C, v T) map[K]C {
			k := key(v)
			c, ok := groups[k]
			if !ok {
				c = downstream.Supplier()
			}
			groups[k] = downstream.Accumulator(c, v)
			return groups
		},
		Combiner: combiner,
		Finisher: func(groups map[K]C) map[K]X {
			return lo.MapValues(groups, func(c C, _ K) X { return downstream.Finisher(c) })
		},
	}
}

type box[C any] struct {
	v C
}

// Collecting turns c into a terminal gatherer that emits the collected
// result once, at end of input.
func Collecting[T, C, X any](c Collector[T, C, X]) (*Gatherer[T, X], error) {
	if err := validation.New().
		NotNil("supplier", c.Supplier).
		NotNil("accumulator", c.Accumulator).
		NotNil("finisher", c.Finisher).
		Err(); err != nil {
		return nil, err
	}
	acc := c.Accumulator
	var combiner func(l, r *box[C]) *box[C]
	if c.Combiner != nil {
		combiner = func(l, r *box[C]) *box[C] {
			return &box[C]{v: c.Combiner(l.v, r.v)}
		}
	}
	return Of(
		func() *box[C] { return &box[C]{v: c.Supplier()} },
		Greedy(func(b *box[C], v T, _ Downstream[X]) error {
			b.v = acc(b.v, v)
			return nil
		}),
		combiner,
		func(b *box[C], down Downstream[X]) error {
			down.Push(c.Finisher(b.v))
			return nil
		},
	)
}
