// Package forkjoin provides the structured concurrency used by parallel
// evaluation: a bounded Pool, forked Tasks that carry panics back to the
// joining goroutine, and Combine for merging sibling failures in encounter
// order.
//
// Work is forked with TryFork only while the pool has a free slot;
// otherwise the caller runs it inline. No goroutine ever blocks waiting for
// a slot, so a task tree cannot starve itself, and an evaluation nested in
// the work of another one on the same pool degrades to running on the
// nesting goroutine.
package forkjoin
