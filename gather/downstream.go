package gather

import "github.com/kbukum/gatherkit/node"

// Downstream receives the elements emitted by a gatherer.
type Downstream[T any] interface {
	// Push delivers v and reports whether more elements are wanted.
	Push(v T) bool
	// IsRejecting reports, best-effort, that Push would return false.
	// Once it returns true it keeps returning true.
	IsRejecting() bool
}

// DownstreamFunc adapts fn to a Downstream. After fn returns false every
// later Push is refused without calling fn.
func DownstreamFunc[T any](fn func(T) bool) Downstream[T] {
	return &funcDownstream[T]{fn: fn}
}

type funcDownstream[T any] struct {
	fn        func(T) bool
	rejecting bool
}

func (d *funcDownstream[T]) Push(v T) bool {
	if d.rejecting {
		return false
	}
	if !d.fn(v) {
		d.rejecting = true
		return false
	}
	return true
}

func (d *funcDownstream[T]) IsRejecting() bool { return d.rejecting }

// Discard returns a downstream that accepts and drops every element.
func Discard[T any]() Downstream[T] {
	return discard[T]{}
}

type discard[T any] struct{}

func (discard[T]) Push(T) bool       { return true }
func (discard[T]) IsRejecting() bool { return false }
func (discard[T]) neverRejects()     {}

// nonRejecting marks downstreams whose Push always returns true. Greedy
// stages feeding one may drain their source without per-element checks.
type nonRejecting interface {
	neverRejects()
}

func neverRejects(d any) bool {
	_, ok := d.(nonRejecting)
	return ok
}

// builderDownstream appends into a node builder.
type builderDownstream struct {
	b *node.Builder[any]
}

func (d builderDownstream) Push(v any) bool   { return d.b.Push(v) }
func (d builderDownstream) IsRejecting() bool { return false }
func (d builderDownstream) neverRejects()     {}

// captureDownstream keeps the last element pushed to it.
type captureDownstream[T any] struct {
	val T
	set bool
}

func (d *captureDownstream[T]) Push(v T) bool {
	d.val, d.set = v, true
	return true
}

func (d *captureDownstream[T]) IsRejecting() bool { return false }
func (d *captureDownstream[T]) neverRejects()     {}

// typedDownstream exposes an erased downstream under a stage's output type.
type typedDownstream[R any] struct {
	d Downstream[any]
}

func (t *typedDownstream[R]) Push(v R) bool     { return t.d.Push(v) }
func (t *typedDownstream[R]) IsRejecting() bool { return t.d.IsRejecting() }

func typed[R any](d Downstream[any]) Downstream[R] {
	if td, ok := d.(Downstream[R]); ok {
		return td
	}
	return &typedDownstream[R]{d: d}
}

// erasedDownstream is the inverse of typedDownstream.
type erasedDownstream[R any] struct {
	d Downstream[R]
}

func (e *erasedDownstream[R]) Push(v any) bool   { return e.d.Push(as[R](v)) }
func (e *erasedDownstream[R]) IsRejecting() bool { return e.d.IsRejecting() }

func erased[R any](d Downstream[R]) Downstream[any] {
	if ed, ok := any(d).(Downstream[any]); ok {
		return ed
	}
	return &erasedDownstream[R]{d: d}
}

// as converts an erased value back to T. A nil interface becomes the zero T.
func as[T any](v any) T {
	t, _ := v.(T)
	return t
}

// sink guards the downstream of one evaluation: once the downstream is
// rejecting, pushes are refused without reaching it.
type sink struct {
	down     Downstream[any]
	rejected bool
}

func (s *sink) Push(v any) bool {
	if s.IsRejecting() {
		return false
	}
	if !s.down.Push(v) {
		s.rejected = true
		return false
	}
	return true
}

func (s *sink) IsRejecting() bool {
	if !s.rejected && s.down.IsRejecting() {
		s.rejected = true
	}
	return s.rejected
}
