package gather

import (
	"github.com/kbukum/gatherkit/validation"
)

// Void is the state type of stateless gatherers.
type Void struct{}

// stage is a gatherer with its types erased. Absent hooks are nil: a nil
// initializer means stateless, a nil combiner means the stage cannot be
// evaluated with independent partition states, and a nil finisher means
// nothing happens at end of input.
type stage struct {
	initializer func() any
	// adapt turns the erased downstream of an evaluation into the value
	// passed as down to integrate and finish. It is called once per sink.
	adapt     func(down Downstream[any]) any
	integrate func(state, element, down any) (bool, error)
	greedy    bool
	combiner  func(left, right any) (any, error)
	finisher  func(state, down any) error
}

func statelessCombine(_, _ any) (any, error) { return nil, nil }

// Gatherer is an immutable description of an intermediate operation
// turning a stream of T into a stream of R.
type Gatherer[T, R any] struct {
	stages []*stage
	fused  *stage
}

func newGatherer[T, R any](stages ...*stage) *Gatherer[T, R] {
	return &Gatherer[T, R]{stages: stages, fused: fuse(stages)}
}

// IsStateless reports whether the gatherer allocates no state.
func (g *Gatherer[T, R]) IsStateless() bool { return g.fused.initializer == nil }

// IsGreedy reports whether every integrator of the gatherer is greedy.
func (g *Gatherer[T, R]) IsGreedy() bool { return g.fused.greedy }

// IsParallelizable reports whether partition states can be combined.
func (g *Gatherer[T, R]) IsParallelizable() bool { return g.fused.combiner != nil }

// HasFinisher reports whether the gatherer acts at end of input.
func (g *Gatherer[T, R]) HasFinisher() bool { return g.fused.finisher != nil }

// Stages returns the number of fused stages.
func (g *Gatherer[T, R]) Stages() int { return len(g.stages) }

// Of creates a gatherer from its four hooks. initializer and integrator
// are required. A nil combiner makes the gatherer sequential and a nil
// finisher means no end-of-input action.
func Of[A, T, R any](
	initializer func() A,
	integrator Integrator[A, T, R],
	combiner func(left, right A) A,
	finisher func(state A, down Downstream[R]) error,
) (*Gatherer[T, R], error) {
	if err := validation.New().
		NotNil("initializer", initializer).
		NotNil("integrator", integrator.fn).
		Err(); err != nil {
		return nil, err
	}

	st := &stage{
		initializer: func() any { return initializer() },
		adapt:       adaptTo[R],
		integrate:   eraseIntegrator(integrator),
		greedy:      integrator.greedy,
	}
	if combiner != nil {
		st.combiner = func(l, r any) (any, error) {
			return combiner(as[A](l), as[A](r)), nil
		}
	}
	if finisher != nil {
		st.finisher = func(state, down any) error {
			return finisher(as[A](state), down.(Downstream[R]))
		}
	}
	return newGatherer[T, R](st), nil
}

// OfSequential creates a gatherer without a combiner.
func OfSequential[A, T, R any](
	initializer func() A,
	integrator Integrator[A, T, R],
	finisher func(state A, down Downstream[R]) error,
) (*Gatherer[T, R], error) {
	return Of(initializer, integrator, nil, finisher)
}

// Stateless creates a parallelizable gatherer without state.
func Stateless[T, R any](integrator Integrator[Void, T, R]) (*Gatherer[T, R], error) {
	return stateless(integrator, nil, true)
}

// StatelessSequential creates a gatherer without state that must see its
// input in a single partition.
func StatelessSequential[T, R any](integrator Integrator[Void, T, R]) (*Gatherer[T, R], error) {
	return stateless(integrator, nil, false)
}

// StatelessWithFinisher creates a parallelizable gatherer without state
// that emits further elements at end of input.
func StatelessWithFinisher[T, R any](integrator Integrator[Void, T, R], finisher func(down Downstream[R]) error) (*Gatherer[T, R], error) {
	if err := validation.NotNil("finisher", finisher); err != nil {
		return nil, err
	}
	return stateless(integrator, finisher, true)
}

func stateless[T, R any](integrator Integrator[Void, T, R], finisher func(Downstream[R]) error, parallel bool) (*Gatherer[T, R], error) {
	if err := validation.NotNil("integrator", integrator.fn); err != nil {
		return nil, err
	}
	fn := integrator.fn
	st := &stage{
		adapt: adaptTo[R],
		integrate: func(_, element, down any) (bool, error) {
			return fn(Void{}, as[T](element), down.(Downstream[R]))
		},
		greedy: integrator.greedy,
	}
	if parallel {
		st.combiner = statelessCombine
	}
	if finisher != nil {
		st.finisher = func(_, down any) error {
			return finisher(down.(Downstream[R]))
		}
	}
	return newGatherer[T, R](st), nil
}

// Must returns g or panics with err. It is meant for package-level
// declarations of gatherers with constant arguments.
func Must[T, R any](g *Gatherer[T, R], err error) *Gatherer[T, R] {
	if err != nil {
		panic(err)
	}
	return g
}

// AsAny re-types the output of g without changing its behavior.
func AsAny[T, R any](g *Gatherer[T, R]) *Gatherer[T, any] {
	return &Gatherer[T, any]{stages: g.stages, fused: g.fused}
}

func adaptTo[R any](down Downstream[any]) any {
	return typed[R](down)
}

func eraseIntegrator[A, T, R any](integrator Integrator[A, T, R]) func(state, element, down any) (bool, error) {
	fn := integrator.fn
	return func(state, element, down any) (bool, error) {
		return fn(as[A](state), as[T](element), down.(Downstream[R]))
	}
}
