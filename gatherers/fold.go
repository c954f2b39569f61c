package gatherers

import (
	"github.com/kbukum/gatherkit/gather"
	"github.com/kbukum/gatherkit/validation"
)

type accumulator[R any] struct {
	v R
}

// Fold accumulates the whole input into one value, emitted at end of
// input. The initial value is emitted when the input is empty.
func Fold[T, R any](initial func() R, folder func(acc R, v T) R) (*gather.Gatherer[T, R], error) {
	if err := validation.New().
		NotNil("initial", initial).
		NotNil("folder", folder).
		Err(); err != nil {
		return nil, err
	}
	return gather.OfSequential(
		func() *accumulator[R] { return &accumulator[R]{v: initial()} },
		gather.Greedy(func(a *accumulator[R], v T, _ gather.Downstream[R]) error {
			a.v = folder(a.v, v)
			return nil
		}),
		func(a *accumulator[R], d gather.Downstream[R]) error {
			d.Push(a.v)
			return nil
		},
	)
}

// Scan emits the running accumulation after every element. It stops as
// soon as the downstream rejects.
func Scan[T, R any](initial func() R, scanner func(acc R, v T) R) (*gather.Gatherer[T, R], error) {
	if err := validation.New().
		NotNil("initial", initial).
		NotNil("scanner", scanner).
		Err(); err != nil {
		return nil, err
	}
	return gather.OfSequential(
		func() *accumulator[R] { return &accumulator[R]{v: initial()} },
		gather.NewIntegrator(func(a *accumulator[R], v T, d gather.Downstream[R]) (bool, error) {
			a.v = scanner(a.v, v)
			return d.Push(a.v), nil
		}),
		nil,
	)
}
