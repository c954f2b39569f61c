// Package spliterator provides splittable, size-estimating sequences.
//
// A Spliterator is traversed element by element with TryAdvance, in bulk
// with ForEachRemaining, or partitioned with TrySplit for divide-and-conquer
// evaluation. TrySplit hands out the prefix of the remaining elements and
// keeps the suffix, so a left-to-right walk over split results visits the
// elements in encounter order.
//
// A Spliterator is not safe for concurrent use, but ownership may move
// between goroutines: after a split, prefix and suffix are independent.
//
//	s := spliterator.OfSlice([]int{1, 2, 3, 4})
//	prefix := s.TrySplit() // [1 2], s keeps [3 4]
package spliterator
