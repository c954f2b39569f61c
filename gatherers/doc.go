// Package gatherers provides ready-made gatherers for the gather engine.
//
// # Windows and accumulation
//
//   - WindowFixed: non-overlapping windows of n elements, the last one may be shorter
//   - WindowSliding: overlapping windows of n elements advancing by one
//   - Fold: a single result emitted at end of input
//   - Scan: every intermediate accumulation
//
// # Concurrency
//
//   - MapConcurrent: maps each element on its own goroutine, at most n at a
//     time, emitting results in input order
//
// # Element-wise
//
// Map, Filter, FlatMap, Peek and TakeWhile are stateless and parallelizable.
// Limit and Distinct keep state and run in a single partition.
//
// # Usage
//
//	windows := gather.Must(gatherers.WindowFixed[int](3))
//	out, err := gather.Collect(ctx, gather.DefaultEngine(),
//	    spliterator.Range(1, 9), windows, gather.ToSlice[[]int](), gather.Sequential)
//	// out == [[1 2 3] [4 5 6] [7 8]]
package gatherers
