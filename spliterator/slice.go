package spliterator

import "math"

type sliceSpliterator[T any] struct {
	items []T
	index int
	fence int
}

// OfSlice returns a spliterator over items. Splits halve the remaining range.
// The slice must not be modified during traversal.
func OfSlice[T any](items []T) Spliterator[T] {
	return &sliceSpliterator[T]{items: items, fence: len(items)}
}

func (s *sliceSpliterator[T]) TryAdvance(action func(T)) bool {
	if s.index >= s.fence {
		return false
	}
	v := s.items[s.index]
	s.index++
	action(v)
	return true
}

func (s *sliceSpliterator[T]) ForEachRemaining(action func(T)) {
	items, lo, hi := s.items, s.index, s.fence
	s.index = hi
	for i := lo; i < hi; i++ {
		action(items[i])
	}
}

func (s *sliceSpliterator[T]) TrySplit() Spliterator[T] {
	lo, mid := s.index, (s.index+s.fence)>>1
	if lo >= mid {
		return nil
	}
	s.index = mid
	return &sliceSpliterator[T]{items: s.items, index: lo, fence: mid}
}

func (s *sliceSpliterator[T]) EstimateSize() int64 {
	return int64(s.fence - s.index)
}

func (s *sliceSpliterator[T]) Characteristics() Characteristics {
	return Ordered | Sized | Subsized | Immutable
}

type rangeSpliterator struct {
	next, end int
}

// Range returns a spliterator over the integers in [lo, hi).
func Range(lo, hi int) Spliterator[int] {
	if hi < lo {
		hi = lo
	}
	return &rangeSpliterator{next: lo, end: hi}
}

func (r *rangeSpliterator) TryAdvance(action func(int)) bool {
	if r.next >= r.end {
		return false
	}
	v := r.next
	r.next++
	action(v)
	return true
}

func (r *rangeSpliterator) ForEachRemaining(action func(int)) {
	lo, hi := r.next, r.end
	r.next = hi
	for i := lo; i < hi; i++ {
		action(i)
	}
}

// width is the number of remaining values. It is computed unsigned
// because hi-lo can exceed math.MaxInt.
func (r *rangeSpliterator) width() uint64 {
	return uint64(r.end) - uint64(r.next)
}

func (r *rangeSpliterator) TrySplit() Spliterator[int] {
	lo := r.next
	mid := lo + int(r.width()/2)
	if mid <= lo {
		return nil
	}
	r.next = mid
	return &rangeSpliterator{next: lo, end: mid}
}

// EstimateSize is exact unless more than math.MaxInt64 values remain, in
// which case it saturates.
func (r *rangeSpliterator) EstimateSize() int64 {
	return int64(min(r.width(), math.MaxInt64))
}

func (r *rangeSpliterator) Characteristics() Characteristics {
	if r.width() > math.MaxInt64 {
		return Ordered | Immutable
	}
	return Ordered | Sized | Subsized | Immutable
}

type emptySpliterator[T any] struct{}

// Empty returns a spliterator without elements.
func Empty[T any]() Spliterator[T] {
	return emptySpliterator[T]{}
}

func (emptySpliterator[T]) TryAdvance(func(T)) bool  { return false }
func (emptySpliterator[T]) ForEachRemaining(func(T)) {}
func (emptySpliterator[T]) TrySplit() Spliterator[T] { return nil }
func (emptySpliterator[T]) EstimateSize() int64      { return 0 }
func (emptySpliterator[T]) Characteristics() Characteristics {
	return Ordered | Sized | Subsized | Immutable
}
