package gather

// Integrator is the per-element function of a gatherer. It receives the
// partition state, the element and the downstream, and reports whether it
// wants more input.
type Integrator[A, T, R any] struct {
	fn     func(state A, element T, down Downstream[R]) (bool, error)
	greedy bool
}

// NewIntegrator wraps fn as an integrator that may short-circuit by
// returning false.
func NewIntegrator[A, T, R any](fn func(state A, element T, down Downstream[R]) (bool, error)) Integrator[A, T, R] {
	return Integrator[A, T, R]{fn: fn}
}

// Greedy wraps fn as an integrator that consumes all of its input. It
// never short-circuits, which lets evaluation skip cutoff bookkeeping.
// Elements it pushes to a rejecting downstream are dropped.
func Greedy[A, T, R any](fn func(state A, element T, down Downstream[R]) error) Integrator[A, T, R] {
	if fn == nil {
		return Integrator[A, T, R]{greedy: true}
	}
	return Integrator[A, T, R]{
		fn: func(state A, element T, down Downstream[R]) (bool, error) {
			return true, fn(state, element, down)
		},
		greedy: true,
	}
}

// IsGreedy reports whether the integrator was built with Greedy.
func (i Integrator[A, T, R]) IsGreedy() bool {
	return i.greedy
}

// Integrate calls the wrapped function.
func (i Integrator[A, T, R]) Integrate(state A, element T, down Downstream[R]) (bool, error) {
	return i.fn(state, element, down)
}
