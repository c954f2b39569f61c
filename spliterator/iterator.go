package spliterator

import "iter"

// Batch sizing defaults for iterator-backed spliterators.
const (
	DefaultBatchUnit = 1 << 10
	DefaultMaxBatch  = 1 << 25
)

// Option configures an iterator-backed spliterator.
type Option func(*options)

type options struct {
	batchUnit int
	maxBatch  int
	size      int64
}

// WithBatch sets the arithmetic growth step and the cap of split batches.
// Non-positive values keep the defaults.
func WithBatch(unit, maxBatch int) Option {
	return func(o *options) {
		if unit > 0 {
			o.batchUnit = unit
		}
		if maxBatch > 0 {
			o.maxBatch = maxBatch
		}
	}
}

// WithSizeHint declares the exact number of elements the iterator yields.
func WithSizeHint(n int64) Option {
	return func(o *options) { o.size = n }
}

// IteratorSpliterator adapts a pull-style iterator. Splitting drains the
// next batch into an array-backed prefix; batches grow by the batch unit
// up to the batch cap.
type IteratorSpliterator[T any] struct {
	next  func() (T, bool)
	stop  func()
	opts  options
	batch int
	done  bool
}

// FromNext wraps a pull function. next returns false once exhausted.
func FromNext[T any](next func() (T, bool), opts ...Option) *IteratorSpliterator[T] {
	o := options{batchUnit: DefaultBatchUnit, maxBatch: DefaultMaxBatch, size: Unknown}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxBatch < o.batchUnit {
		o.maxBatch = o.batchUnit
	}
	return &IteratorSpliterator[T]{next: next, opts: o}
}

// FromSeq wraps a push iterator through iter.Pull. Close must be called
// if traversal may stop before the sequence is exhausted.
func FromSeq[T any](seq iter.Seq[T], opts ...Option) *IteratorSpliterator[T] {
	next, stop := iter.Pull(seq)
	s := FromNext(next, opts...)
	s.stop = stop
	return s
}

// Close releases the underlying iterator. It is safe to call more than once.
func (s *IteratorSpliterator[T]) Close() {
	s.done = true
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

func (s *IteratorSpliterator[T]) pull() (T, bool) {
	if s.done {
		var zero T
		return zero, false
	}
	v, ok := s.next()
	if !ok {
		s.Close()
		return v, false
	}
	if s.opts.size != Unknown && s.opts.size > 0 {
		s.opts.size--
	}
	return v, true
}

func (s *IteratorSpliterator[T]) TryAdvance(action func(T)) bool {
	v, ok := s.pull()
	if !ok {
		return false
	}
	action(v)
	return true
}

func (s *IteratorSpliterator[T]) ForEachRemaining(action func(T)) {
	for {
		v, ok := s.pull()
		if !ok {
			return
		}
		action(v)
	}
}

func (s *IteratorSpliterator[T]) TrySplit() Spliterator[T] {
	if s.done {
		return nil
	}
	n := s.batch + s.opts.batchUnit
	if n > s.opts.maxBatch {
		n = s.opts.maxBatch
	}
	if s.opts.size != Unknown && int64(n) > s.opts.size {
		n = int(s.opts.size)
	}
	if n <= 0 {
		return nil
	}
	buf := make([]T, 0, n)
	for len(buf) < n {
		v, ok := s.pull()
		if !ok {
			break
		}
		buf = append(buf, v)
	}
	if len(buf) == 0 {
		return nil
	}
	s.batch = len(buf)
	return OfSlice(buf)
}

func (s *IteratorSpliterator[T]) EstimateSize() int64 {
	if s.done {
		return 0
	}
	return s.opts.size
}

func (s *IteratorSpliterator[T]) Characteristics() Characteristics {
	if s.opts.size != Unknown {
		return Ordered | Sized
	}
	return Ordered
}
