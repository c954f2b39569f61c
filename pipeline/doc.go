// Package pipeline provides composable data pipelines evaluated by the
// gather engine.
//
// Pipelines are lazy: no work happens until a terminal such as Collect,
// Drain or ForEach runs them. Every operator appends a gatherer and the
// stages of a pipeline are fused into one composite before evaluation, so
// a short-circuiting stage such as Limit stops pulling input for the
// whole pipeline.
//
// # Sources
//
//   - FromSlice, Range: sized sources that split evenly in parallel mode
//   - FromSeq: an iter.Seq, pulled in growing batches when split
//   - From, FromFunc: an Iterator, closed when the run ends
//   - FromSpliterator: any spliterator factory
//
// # Operators
//
//   - Map, Filter, FlatMap, Tap, TapEach: element-wise
//   - FanOut: apply multiple functions concurrently, collect results as []O
//   - Reduce, Scan: accumulate values
//   - Limit, TakeWhile: stop early
//   - Distinct, Window, SlidingWindow: stateful, single partition
//   - MapConcurrent: ordered concurrent Map with bounded in-flight calls
//   - Gather: any gatherer
//
// # Evaluation
//
// Pipelines run sequentially on the default engine unless Parallel or
// WithEngine says otherwise. Parallel evaluation keeps encounter order.
//
// # Usage
//
//	src := pipeline.Range(0, 1_000_000).Parallel()
//	squares := pipeline.Map(src, func(_ context.Context, n int) (int, error) {
//	    return n * n, nil
//	})
//	evens := pipeline.Filter(squares, func(n int) bool { return n%2 == 0 })
//	first, _ := pipeline.Collect(ctx, pipeline.Limit(evens, 10))
package pipeline
