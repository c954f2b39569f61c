package forkjoin

import (
	"github.com/hashicorp/go-multierror"

	"github.com/kbukum/gatherkit/errors"
)

// Task is the pending result of a forked computation.
type Task[R any] struct {
	done      chan struct{}
	val       R
	err       error
	panicked  bool
	recovered any
}

// Fork runs fn on a new goroutine.
func Fork[R any](fn func() (R, error)) *Task[R] {
	t := &Task[R]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				t.panicked = true
				t.recovered = r
			}
		}()
		t.val, t.err = fn()
	}()
	return t
}

// Done is closed once the task has finished.
func (t *Task[R]) Done() <-chan struct{} {
	return t.done
}

// Join waits for the task and returns its result. A panic raised by the
// task is raised again on the calling goroutine with the original value.
func (t *Task[R]) Join() (R, error) {
	<-t.done
	if t.panicked {
		panic(t.recovered)
	}
	return t.val, t.err
}

// Wait waits for the task like Join but reports a panic as an
// INTERNAL_ERROR instead of raising it.
func (t *Task[R]) Wait() (R, error) {
	<-t.done
	if t.panicked {
		var zero R
		return zero, errors.Panic(t.recovered)
	}
	return t.val, t.err
}

// Combine returns the first non-nil error with every later failure
// attached, or nil when all are nil.
func Combine(errs ...error) error {
	var first error
	var merged *multierror.Error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if first == nil {
			first = err
			continue
		}
		if merged == nil {
			merged = multierror.Append(merged, first)
		}
		merged = multierror.Append(merged, err)
	}
	if merged != nil {
		return merged
	}
	return first
}
