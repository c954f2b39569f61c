package gather

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/kbukum/gatherkit/errors"
	"github.com/kbukum/gatherkit/forkjoin"
	"github.com/kbukum/gatherkit/logger"
	"github.com/kbukum/gatherkit/node"
	"github.com/kbukum/gatherkit/spliterator"
)

// segment is one leaf of a hybrid evaluation. A leaf with a task was
// prefetched into a buffer; any other leaf is integrated straight from its
// spliterator.
type segment struct {
	src  spliterator.Spliterator[any]
	task *forkjoin.Task[*node.Builder[any]]
}

// splitPrefix separates the leading stateless, greedy, combinable stages
// without finisher from the rest. Those stages are pure per element and
// can run on any leaf ahead of the single-state remainder.
func splitPrefix(stages []*stage) (prefix, rest *stage) {
	k := 0
	for k < len(stages)-1 {
		st := stages[k]
		if st.initializer != nil || !st.greedy || st.combiner == nil || st.finisher != nil {
			break
		}
		k++
	}
	if k == 0 {
		return nil, fuse(stages)
	}
	return fuse(stages[:k]), fuse(stages[k:])
}

// hybrid evaluates a gatherer without combiner on a split source. A
// producer splits the source into ordered leaves, leaves after the first
// are prefetched while the pool has a free slot, and the calling goroutine
// integrates every leaf into the single state in encounter order. On
// short-circuit, error or cancellation the remaining prefetches are told to
// stop, joined and their buffers discarded.
func (ev *evaluation) hybrid(src spliterator.Spliterator[any], down Downstream[any], nr bool) (outcome, error) {
	pool := ev.engine.pool
	size := src.EstimateSize()
	target := forkjoin.LeafTarget(size, pool.Parallelism(), ev.engine.cfg.LeafTargetFactor)
	if size <= target {
		return ev.sequential(src, down, nr)
	}
	prefix, rest := splitPrefix(ev.stages)

	ctx, cancel := context.WithCancel(ev.ctx)
	defer cancel()
	var canceled atomic.Bool
	segs := make(chan segment, 2*pool.Parallelism())

	producer := forkjoin.Fork(func() (struct{}, error) {
		defer close(segs)
		first := true
		spliterator.SplitAll(src, target, func(leaf spliterator.Spliterator[any]) bool {
			if canceled.Load() {
				return false
			}
			seg := segment{src: leaf}
			if !first {
				seg.task = forkjoin.TryFork(pool, func() (*node.Builder[any], error) {
					return ev.prefetch(ctx, &canceled, prefix, leaf)
				})
			}
			first = false
			segs <- seg
			return true
		})
		return struct{}{}, nil
	})

	stopAll := sync.OnceFunc(func() {
		canceled.Store(true)
		cancel()
		for seg := range segs {
			if seg.task != nil {
				_, _ = seg.task.Wait()
			}
		}
		_, _ = producer.Wait()
	})
	defer stopAll()

	r := newRunner(ev.ctx, rest, down, nr)
	var head *runner
	if prefix != nil {
		head = newRunner(ev.ctx, prefix, r, false)
	}

	var res outcome
	var err error
	for seg := range segs {
		res.leaves++
		switch {
		case seg.task == nil && head != nil:
			if err = head.consume(seg.src); err == nil {
				err = r.err
			}
		case seg.task == nil:
			err = r.consume(seg.src)
		default:
			var buf *node.Builder[any]
			if buf, err = seg.task.Join(); err == nil {
				buf.Build().ForEach(r.Push)
				err = r.err
			}
		}
		if err != nil || !r.proceed {
			break
		}
	}
	if err == nil && r.proceed {
		// The source was fully consumed; surface a panic raised while splitting.
		_, _ = producer.Join()
	}
	stopAll()

	if ev.log.DebugEnabled() {
		ev.log.Debug("hybrid leaves integrated", logger.Fields(
			logger.FieldLeaves, res.leaves,
			"target", target,
			"prefix", prefix != nil,
		))
	}
	if err != nil {
		return res, err
	}
	res.shortCircuit = r.shortCircuited()
	return res, r.finish()
}

// prefetch buffers one leaf, running the stateless prefix on it when there
// is one. It stops early once canceled is set.
func (ev *evaluation) prefetch(ctx context.Context, canceled *atomic.Bool, prefix *stage, leaf spliterator.Spliterator[any]) (*node.Builder[any], error) {
	buf := &node.Builder[any]{}
	if err := ctx.Err(); err != nil {
		return buf, errors.Canceled(err)
	}
	if prefix == nil {
		for !canceled.Load() && leaf.TryAdvance(func(v any) { buf.Append(v) }) {
		}
		return buf, nil
	}
	pr := newRunner(ctx, prefix, builderDownstream{b: buf}, true)
	pr.stop = canceled.Load
	return buf, pr.consume(leaf)
}
