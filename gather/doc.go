// Package gather provides gatherers, user-defined intermediate stream
// operations, and the engine that evaluates them over splittable sources.
//
// A Gatherer is described by four hooks: an initializer creating the
// per-partition state, an integrator called for every element, an
// optional combiner merging two partition states, and an optional
// finisher acting at end of input. Gatherers compose with AndThen into a
// single flattened stage list.
//
// # Evaluation
//
// Evaluate runs a gatherer over a spliterator and pushes its output to a
// Downstream in encounter order:
//
//   - Sequential: one state on the calling goroutine
//   - Parallel with a combiner: a fork/join tree of partition states merged
//     left to right
//   - Parallel without a combiner: leaves are prefetched concurrently and
//     integrated into one state in order
//
// An integrator that returns false, or a downstream that starts rejecting,
// short-circuits the evaluation. In parallel evaluation, work to the right
// of the cutoff is canceled on a best-effort basis and its output is
// discarded.
//
// # Usage
//
//	double := gather.Must(gather.Stateless(gather.Greedy(
//	    func(_ gather.Void, v int, d gather.Downstream[int]) error {
//	        d.Push(v * 2)
//	        return nil
//	    })))
//	out, err := gather.Collect(ctx, gather.DefaultEngine(),
//	    spliterator.Range(0, 1000), double, gather.ToSlice[int](), gather.Parallel)
package gather
