package gather

import (
	"go.uber.org/atomic"

	"github.com/kbukum/gatherkit/errors"
	"github.com/kbukum/gatherkit/forkjoin"
	"github.com/kbukum/gatherkit/logger"
	"github.com/kbukum/gatherkit/node"
	"github.com/kbukum/gatherkit/observability"
	"github.com/kbukum/gatherkit/spliterator"
)

// task is a node of the parallel task tree.
type task struct {
	parent   *task
	sibling  *task // right sibling, set on left children only
	canceled atomic.Bool
	src      spliterator.Spliterator[any]
}

// cancellationRequested reports whether t or one of its ancestors was canceled.
func (t *task) cancellationRequested() bool {
	for n := t; n != nil; n = n.parent {
		if n.canceled.Load() {
			return true
		}
	}
	return false
}

// cancelLaterSiblings cancels every right sibling along the path from t to
// the root. Those tasks cover input that follows t in encounter order.
func (t *task) cancelLaterSiblings() {
	for n := t; n.parent != nil; n = n.parent {
		if n.sibling != nil {
			n.sibling.canceled.Store(true)
		}
	}
}

// partial is the result of a subtree.
type partial struct {
	state   any
	proceed bool
	skipped bool
	spent   bool
	out     *node.Builder[any]
}

// parallel evaluates a gatherer with combiner on a binary task tree. Every
// leaf integrates into its own state and buffer; siblings merge left then
// right, dropping the right result when the left one short-circuited. The
// root finishes the merged state and pushes the buffer in order.
func (ev *evaluation) parallel(src spliterator.Spliterator[any], down Downstream[any], nr bool) (outcome, error) {
	pool := ev.engine.pool
	size := src.EstimateSize()
	target := forkjoin.LeafTarget(size, pool.Parallelism(), ev.engine.cfg.LeafTargetFactor)
	if size <= target {
		return ev.sequential(src, down, nr)
	}

	var leaves atomic.Int64
	root := &task{src: src}
	p, err := ev.compute(root, target, &leaves)
	res := outcome{leaves: int(leaves.Load())}
	if err != nil {
		return res, err
	}
	if ev.log.DebugEnabled() {
		ev.log.Debug("parallel tree merged", logger.Fields(
			logger.FieldLeaves, res.leaves,
			"target", target,
			"proceed", p.proceed,
		))
	}
	res.shortCircuit = !p.proceed

	if ev.st.finisher != nil {
		if err := ev.st.finisher(p.state, ev.st.adapt(builderDownstream{b: p.out})); err != nil {
			return res, err
		}
		p.spent = true
	}
	out := &sink{down: down}
	p.out.Build().ForEach(out.Push)
	if out.rejected {
		res.shortCircuit = true
	}
	return res, nil
}

func (ev *evaluation) compute(t *task, target int64, leaves *atomic.Int64) (*partial, error) {
	if t.cancellationRequested() {
		return &partial{skipped: true}, nil
	}
	if err := ev.ctx.Err(); err != nil {
		return nil, errors.Canceled(err)
	}
	if t.src.EstimateSize() <= target {
		return ev.leaf(t, leaves)
	}
	prefix := t.src.TrySplit()
	if prefix == nil {
		return ev.leaf(t, leaves)
	}

	left := &task{parent: t, src: prefix}
	right := &task{parent: t, src: t.src}
	left.sibling = right
	rightTask := forkjoin.TryFork(ev.engine.pool, func() (*partial, error) {
		return ev.compute(right, target, leaves)
	})

	lp, lerr := func() (lp *partial, lerr error) {
		defer func() {
			if r := recover(); r != nil {
				right.canceled.Store(true)
				if rightTask != nil {
					_, _ = rightTask.Wait()
				}
				panic(r)
			}
		}()
		return ev.compute(left, target, leaves)
	}()
	if lerr != nil {
		right.canceled.Store(true)
	}
	var rp *partial
	var rerr error
	if rightTask != nil {
		rp, rerr = rightTask.Join()
	} else {
		rp, rerr = ev.compute(right, target, leaves)
	}
	return ev.merge(lp, lerr, rp, rerr)
}

// leaf integrates one split into its own state and buffer on the current
// goroutine.
func (ev *evaluation) leaf(t *task, leaves *atomic.Int64) (*partial, error) {
	leaves.Inc()
	_, span := observability.StartLeaf(ev.ctx)
	defer span.End()
	p := &partial{out: &node.Builder[any]{}}
	r := newRunner(ev.ctx, ev.st, builderDownstream{b: p.out}, true)
	r.stop = t.cancellationRequested
	err := r.consume(t.src)
	if err != nil {
		return nil, err
	}
	p.state, p.proceed = r.state, r.proceed
	if !p.proceed && !t.cancellationRequested() {
		t.cancelLaterSiblings()
	}
	return p, nil
}

// merge combines sibling results in encounter order. A failure on the left
// wins; a right failure is attached to it. A right result that follows a
// short-circuited left result is dropped, whatever its outcome.
func (ev *evaluation) merge(lp *partial, lerr error, rp *partial, rerr error) (*partial, error) {
	switch {
	case lerr != nil:
		return nil, forkjoin.Combine(lerr, rerr)
	case lp.skipped:
		return lp, nil
	case !lp.proceed:
		return lp, nil
	case rerr != nil:
		return nil, rerr
	case rp.skipped:
		lp.proceed = false
		return lp, nil
	}
	if ev.engine.cfg.Debug && (lp.spent || rp.spent) {
		return nil, errors.IllegalState("partial result merged twice")
	}
	state, err := ev.st.combiner(lp.state, rp.state)
	if err != nil {
		return nil, err
	}
	lp.spent, rp.spent = true, true
	lp.out.Join(rp.out)
	return &partial{state: state, proceed: rp.proceed, out: lp.out}, nil
}
