package gatherers

import (
	"github.com/kbukum/gatherkit/gather"
	"github.com/kbukum/gatherkit/validation"
)

// Map transforms each element.
func Map[T, R any](fn func(T) R) (*gather.Gatherer[T, R], error) {
	if err := validation.NotNil("mapper", fn); err != nil {
		return nil, err
	}
	return gather.Stateless(gather.Greedy(func(_ gather.Void, v T, d gather.Downstream[R]) error {
		d.Push(fn(v))
		return nil
	}))
}

// Filter keeps the elements matching pred.
func Filter[T any](pred func(T) bool) (*gather.Gatherer[T, T], error) {
	if err := validation.NotNil("predicate", pred); err != nil {
		return nil, err
	}
	return gather.Stateless(gather.Greedy(func(_ gather.Void, v T, d gather.Downstream[T]) error {
		if pred(v) {
			d.Push(v)
		}
		return nil
	}))
}

// FlatMap replaces each element with the elements fn returns for it.
func FlatMap[T, R any](fn func(T) []R) (*gather.Gatherer[T, R], error) {
	if err := validation.NotNil("mapper", fn); err != nil {
		return nil, err
	}
	return gather.Stateless(gather.Greedy(func(_ gather.Void, v T, d gather.Downstream[R]) error {
		for _, r := range fn(v) {
			if !d.Push(r) {
				break
			}
		}
		return nil
	}))
}

// Peek calls fn for each element and passes it on unchanged.
func Peek[T any](fn func(T)) (*gather.Gatherer[T, T], error) {
	if err := validation.NotNil("action", fn); err != nil {
		return nil, err
	}
	return gather.Stateless(gather.Greedy(func(_ gather.Void, v T, d gather.Downstream[T]) error {
		fn(v)
		d.Push(v)
		return nil
	}))
}

// TakeWhile passes elements until the first one that fails pred.
func TakeWhile[T any](pred func(T) bool) (*gather.Gatherer[T, T], error) {
	if err := validation.NotNil("predicate", pred); err != nil {
		return nil, err
	}
	return gather.Stateless(gather.NewIntegrator(func(_ gather.Void, v T, d gather.Downstream[T]) (bool, error) {
		if !pred(v) {
			return false, nil
		}
		return d.Push(v), nil
	}))
}

// Limit passes at most the first n elements.
func Limit[T any](n int) (*gather.Gatherer[T, T], error) {
	if err := validation.New().Min("limit", n, 0).Err(); err != nil {
		return nil, err
	}
	return gather.OfSequential(
		func() *int { return new(int) },
		gather.NewIntegrator(func(taken *int, v T, d gather.Downstream[T]) (bool, error) {
			if *taken >= n {
				return false, nil
			}
			*taken++
			return d.Push(v) && *taken < n, nil
		}),
		nil,
	)
}

// Distinct drops elements equal to one seen before.
func Distinct[T comparable]() (*gather.Gatherer[T, T], error) {
	return gather.OfSequential(
		func() map[T]struct{} { return make(map[T]struct{}) },
		gather.Greedy(func(seen map[T]struct{}, v T, d gather.Downstream[T]) error {
			if _, ok := seen[v]; ok {
				return nil
			}
			seen[v] = struct{}{}
			d.Push(v)
			return nil
		}),
		nil,
	)
}
