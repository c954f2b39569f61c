package gather

import (
	"github.com/kbukum/gatherkit/errors"
	"github.com/kbukum/gatherkit/validation"
)

// AndThen fuses a and b into one gatherer that feeds every element a emits
// straight into b. Nested compositions are flattened into a single stage
// list, so chains of any length integrate without nested calls per level.
func AndThen[T, M, R any](a *Gatherer[T, M], b *Gatherer[M, R]) (*Gatherer[T, R], error) {
	if err := validation.New().
		NotNil("first", a).
		NotNil("second", b).
		Err(); err != nil {
		return nil, err
	}
	stages := make([]*stage, 0, len(a.stages)+len(b.stages))
	stages = append(stages, a.stages...)
	stages = append(stages, b.stages...)
	return newGatherer[T, R](stages...), nil
}

// fuse builds the stage that evaluates stages in order.
func fuse(stages []*stage) *stage {
	if len(stages) == 1 {
		return stages[0]
	}
	c := &composite{stages: stages}
	fast, greedy, combinable, finishes := true, true, true, false
	for _, st := range stages {
		fast = fast && st.initializer == nil && st.greedy
		greedy = greedy && st.greedy
		combinable = combinable && st.combiner != nil
		finishes = finishes || st.finisher != nil
	}

	fused := &stage{
		adapt:     c.adapt,
		integrate: c.integrate,
		greedy:    greedy,
	}
	if !fast {
		fused.initializer = c.initialize
	}
	switch {
	case combinable && fast:
		fused.combiner = statelessCombine
	case combinable:
		fused.combiner = c.combine
	}
	if finishes {
		fused.finisher = c.finish
	}
	return fused
}

// composite evaluates a flattened list of stages. Stateless greedy chains
// run without a state; every other chain carries a compositeState.
type composite struct {
	stages []*stage
}

// compositeState holds one state and one proceed flag per stage. Once it has
// been combined or finished it is spent and must not be integrated again.
type compositeState struct {
	states  []any
	proceed []bool
	spent   bool
}

func (cs *compositeState) proceeding() bool {
	for _, p := range cs.proceed {
		if !p {
			return false
		}
	}
	return true
}

func (c *composite) initialize() any {
	cs := &compositeState{
		states:  make([]any, len(c.stages)),
		proceed: make([]bool, len(c.stages)),
	}
	for i, st := range c.stages {
		if st.initializer != nil {
			cs.states[i] = st.initializer()
		}
		cs.proceed[i] = true
	}
	return cs
}

// chain is the per-sink wiring of a composite: link i integrates into stage
// i and stage i emits into next[i]. It is used by one goroutine at a time.
type chain struct {
	c       *composite
	links   []link
	next    []Downstream[any]
	adapted []any
	cs      *compositeState
	err     error
}

func (c *composite) adapt(down Downstream[any]) any {
	n := len(c.stages)
	ch := &chain{
		c:       c,
		links:   make([]link, n),
		next:    make([]Downstream[any], n),
		adapted: make([]any, n),
	}
	for i := range n {
		ch.links[i] = link{ch: ch, i: i}
	}
	for i, st := range c.stages {
		next := down
		if i+1 < n {
			next = &ch.links[i+1]
		}
		ch.next[i] = next
		ch.adapted[i] = st.adapt(next)
	}
	return ch
}

// take returns and clears the error raised by a nested stage.
func (ch *chain) take() error {
	err := ch.err
	ch.err = nil
	return err
}

type link struct {
	ch *chain
	i  int
}

func (l *link) Push(v any) bool {
	ch, i := l.ch, l.i
	if ch.err != nil {
		return false
	}
	st := ch.c.stages[i]
	var state any
	if cs := ch.cs; cs != nil {
		if !cs.proceed[i] {
			return false
		}
		state = cs.states[i]
	}
	ok, err := st.integrate(state, v, ch.adapted[i])
	if err != nil {
		ch.err = err
		return false
	}
	if !ok && !st.greedy && ch.cs != nil {
		ch.cs.proceed[i] = false
		return false
	}
	return !ch.next[i].IsRejecting()
}

func (l *link) IsRejecting() bool {
	ch := l.ch
	if ch.err != nil || (ch.cs != nil && !ch.cs.proceed[l.i]) {
		return true
	}
	return ch.next[l.i].IsRejecting()
}

func (c *composite) bind(state, down any) (*chain, *compositeState, error) {
	ch := down.(*chain)
	var cs *compositeState
	if state != nil {
		cs = state.(*compositeState)
		if cs.spent {
			return nil, nil, errors.IllegalState("state integrated after it was combined or finished")
		}
	}
	ch.cs = cs
	return ch, cs, nil
}

func (c *composite) integrate(state, element, down any) (bool, error) {
	ch, cs, err := c.bind(state, down)
	if err != nil {
		return false, err
	}
	ch.links[0].Push(element)
	if err := ch.take(); err != nil {
		return false, err
	}
	if cs == nil {
		return true, nil
	}
	return cs.proceeding(), nil
}

func (c *composite) combine(left, right any) (any, error) {
	l, r := left.(*compositeState), right.(*compositeState)
	if l.spent || r.spent {
		return nil, errors.IllegalState("state combined after it was combined or finished")
	}
	out := &compositeState{
		states:  make([]any, len(c.stages)),
		proceed: make([]bool, len(c.stages)),
	}
	for i, st := range c.stages {
		merged, err := st.combiner(l.states[i], r.states[i])
		if err != nil {
			return nil, err
		}
		out.states[i] = merged
		out.proceed[i] = l.proceed[i] && r.proceed[i]
	}
	l.spent, r.spent = true, true
	return out, nil
}

func (c *composite) finish(state, down any) error {
	ch, cs, err := c.bind(state, down)
	if err != nil {
		return err
	}
	for i, st := range c.stages {
		if st.finisher == nil {
			continue
		}
		var s any
		if cs != nil {
			s = cs.states[i]
		}
		if err := st.finisher(s, ch.adapted[i]); err != nil {
			return err
		}
		if err := ch.take(); err != nil {
			return err
		}
	}
	if cs != nil {
		cs.spent = true
	}
	return nil
}
