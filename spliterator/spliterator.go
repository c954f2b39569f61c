package spliterator

import "math"

// Unknown is the size estimate of a spliterator that cannot tell its size.
const Unknown int64 = math.MaxInt64

// Characteristics describes structural properties of a spliterator.
type Characteristics uint8

const (
	// Ordered means elements have a defined encounter order.
	Ordered Characteristics = 1 << iota
	// Sized means EstimateSize is exact before traversal.
	Sized
	// Subsized means every split result is Sized.
	Subsized
	// Immutable means the element source cannot change during traversal.
	Immutable
)

// Has reports whether all flags in f are set.
func (c Characteristics) Has(f Characteristics) bool {
	return c&f == f
}

// Spliterator is a splittable sequence of elements.
type Spliterator[T any] interface {
	// TryAdvance passes the next element to action. It returns false
	// when no element remains.
	TryAdvance(action func(T)) bool
	// ForEachRemaining passes every remaining element to action.
	ForEachRemaining(action func(T))
	// TrySplit splits off a prefix of the remaining elements and returns
	// it, keeping the suffix. It returns nil when no split is possible.
	TrySplit() Spliterator[T]
	// EstimateSize returns the number of remaining elements, or Unknown.
	EstimateSize() int64
	// Characteristics returns the structural flags of this spliterator.
	Characteristics() Characteristics
}

// Drain collects the remaining elements of s into a slice.
func Drain[T any](s Spliterator[T]) []T {
	var out []T
	if est := s.EstimateSize(); est != Unknown && s.Characteristics().Has(Sized) {
		out = make([]T, 0, est)
	}
	s.ForEachRemaining(func(v T) { out = append(out, v) })
	return out
}

// SplitAll splits s recursively until every part is at most threshold
// elements or cannot be split further, and passes the parts to yield in
// encounter order. It stops as soon as yield returns false and reports
// whether it ran to completion. Unknown-size spliterators are split
// lazily, so an unbounded source is safe as long as yield stops.
func SplitAll[T any](s Spliterator[T], threshold int64, yield func(Spliterator[T]) bool) bool {
	for s.EstimateSize() > threshold {
		prefix := s.TrySplit()
		if prefix == nil {
			break
		}
		if !SplitAll(prefix, threshold, yield) {
			return false
		}
	}
	return yield(s)
}
