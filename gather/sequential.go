package gather

import (
	"context"

	"github.com/kbukum/gatherkit/errors"
	"github.com/kbukum/gatherkit/spliterator"
)

// ctxCheckInterval is the number of elements integrated between context checks.
const ctxCheckInterval = 1 << 10

// runner integrates elements into one state, in encounter order. It is
// itself a Downstream so that one stage can feed another runner.
type runner struct {
	ctx     context.Context
	st      *stage
	state   any
	sink    *sink
	down    any
	drain   bool
	proceed bool
	err     error
	n       int
	stop    func() bool
}

func newRunner(ctx context.Context, st *stage, down Downstream[any], nr bool) *runner {
	r := &runner{
		ctx:   ctx,
		st:    st,
		sink:  &sink{down: down},
		drain: st.greedy && nr,
	}
	r.proceed = !r.sink.IsRejecting()
	if st.initializer != nil {
		r.state = st.initializer()
	}
	r.down = st.adapt(r.sink)
	return r
}

func (r *runner) Push(v any) bool {
	if !r.proceed {
		return false
	}
	r.integrate(v)
	return r.proceed
}

func (r *runner) IsRejecting() bool { return !r.proceed }

func (r *runner) integrate(v any) {
	ok, err := r.st.integrate(r.state, v, r.down)
	switch {
	case err != nil:
		r.fail(err)
		return
	case !ok && !r.st.greedy:
		r.proceed = false
		return
	case r.sink.IsRejecting():
		r.proceed = false
		return
	}
	r.n++
	if r.n%ctxCheckInterval == 0 {
		if err := r.ctx.Err(); err != nil {
			r.fail(errors.Canceled(err))
		} else if r.stop != nil && r.stop() {
			r.proceed = false
		}
	}
}

func (r *runner) fail(err error) {
	if r.err == nil {
		r.err = err
	}
	r.proceed = false
}

// consume integrates src until it is exhausted or the runner stops.
func (r *runner) consume(src spliterator.Spliterator[any]) error {
	if !r.proceed || r.sink.IsRejecting() {
		r.proceed = false
		return r.err
	}
	if r.drain && r.stop == nil && src.Characteristics().Has(spliterator.Sized) {
		src.ForEachRemaining(func(v any) {
			if r.proceed {
				r.integrate(v)
			}
		})
		return r.err
	}
	for r.proceed && src.TryAdvance(r.integrate) {
	}
	return r.err
}

// shortCircuited reports whether the runner stopped without an error.
func (r *runner) shortCircuited() bool {
	return !r.proceed && r.err == nil
}

// finish runs the finisher once. Elements it pushes after the downstream
// started rejecting are dropped.
func (r *runner) finish() error {
	if r.err != nil {
		return r.err
	}
	if r.st.finisher == nil {
		return nil
	}
	if err := r.st.finisher(r.state, r.down); err != nil {
		r.fail(err)
		return err
	}
	return nil
}

func (ev *evaluation) sequential(src spliterator.Spliterator[any], down Downstream[any], nr bool) (outcome, error) {
	if err := ev.ctx.Err(); err != nil {
		return outcome{}, errors.Canceled(err)
	}
	r := newRunner(ev.ctx, ev.st, down, nr)
	if err := r.consume(src); err != nil {
		return outcome{leaves: 1}, err
	}
	res := outcome{leaves: 1, shortCircuit: r.shortCircuited()}
	return res, r.finish()
}
