package forkjoin

import (
	"runtime"

	"golang.org/x/sync/semaphore"

	"github.com/kbukum/gatherkit/spliterator"
)

// UnknownSizeTarget is the leaf size used when the source size is unknown.
const UnknownSizeTarget int64 = 1 << 10

// Pool bounds the number of goroutines a parallel evaluation forks. The
// goroutine that starts the evaluation takes part in the work, so a pool
// of parallelism n hands out n-1 slots.
type Pool struct {
	parallelism int
	sem         *semaphore.Weighted
}

// NewPool creates a pool with the given parallelism. Zero or negative
// values use runtime.GOMAXPROCS(0).
func NewPool(parallelism int) *Pool {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		parallelism: parallelism,
		sem:         semaphore.NewWeighted(int64(parallelism - 1)),
	}
}

// Parallelism returns the number of goroutines working on one evaluation,
// the caller included.
func (p *Pool) Parallelism() int {
	return p.parallelism
}

// TryFork runs fn on a new goroutine that holds one slot of p until fn
// returns. When every slot is taken it returns nil without running fn and
// the caller does the work itself. It never waits for a slot, so work that
// starts another evaluation on the same pool cannot deadlock.
func TryFork[R any](p *Pool, fn func() (R, error)) *Task[R] {
	if !p.sem.TryAcquire(1) {
		return nil
	}
	return Fork(func() (R, error) {
		defer p.sem.Release(1)
		return fn()
	})
}

// LeafTarget returns the size below which a source is no longer split:
// size / (parallelism * factor), at least 1.
func LeafTarget(size int64, parallelism, factor int) int64 {
	if size == spliterator.Unknown || size < 0 {
		return UnknownSizeTarget
	}
	if parallelism < 1 {
		parallelism = 1
	}
	if factor < 1 {
		factor = 1
	}
	return max(1, size/int64(parallelism*factor))
}
