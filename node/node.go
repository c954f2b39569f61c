package node

import "github.com/kbukum/gatherkit/spliterator"

// JoinCutoff is the element count below which Join copies the right
// operand instead of building a concatenation node.
const JoinCutoff = 8

// Node is an immutable, ordered sequence of elements.
type Node[T any] interface {
	// Count returns the number of elements.
	Count() int64
	// ForEach calls fn for each element in order until fn returns false.
	// It reports whether every element was visited.
	ForEach(fn func(T) bool) bool
	// ToSlice copies the elements into a new slice.
	ToSlice() []T
	// Spliterator returns a spliterator over the elements.
	Spliterator() spliterator.Spliterator[T]
}

// Empty returns the empty node.
func Empty[T any]() Node[T] {
	return emptyNode[T]{}
}

// OfSlice wraps items without copying. items must not be modified afterwards.
func OfSlice[T any](items []T) Node[T] {
	if len(items) == 0 {
		return Empty[T]()
	}
	return &arrayNode[T]{items: items}
}

// Concat returns a node holding the elements of left followed by right.
func Concat[T any](left, right Node[T]) Node[T] {
	switch {
	case left == nil || left.Count() == 0:
		if right == nil {
			return Empty[T]()
		}
		return right
	case right == nil || right.Count() == 0:
		return left
	}
	return &concatNode[T]{left: left, right: right, count: left.Count() + right.Count()}
}

type emptyNode[T any] struct{}

func (emptyNode[T]) Count() int64              { return 0 }
func (emptyNode[T]) ForEach(func(T) bool) bool { return true }
func (emptyNode[T]) ToSlice() []T              { return nil }
func (emptyNode[T]) Spliterator() spliterator.Spliterator[T] {
	return spliterator.Empty[T]()
}

type arrayNode[T any] struct {
	items []T
}

func (n *arrayNode[T]) Count() int64 { return int64(len(n.items)) }

func (n *arrayNode[T]) ForEach(fn func(T) bool) bool {
	for _, v := range n.items {
		if !fn(v) {
			return false
		}
	}
	return true
}

func (n *arrayNode[T]) ToSlice() []T {
	out := make([]T, len(n.items))
	copy(out, n.items)
	return out
}

func (n *arrayNode[T]) Spliterator() spliterator.Spliterator[T] {
	return spliterator.OfSlice(n.items)
}

type spineNode[T any] struct {
	chunks [][]T
	count  int64
}

func (n *spineNode[T]) Count() int64 { return n.count }

func (n *spineNode[T]) ForEach(fn func(T) bool) bool {
	for _, c := range n.chunks {
		for _, v := range c {
			if !fn(v) {
				return false
			}
		}
	}
	return true
}

func (n *spineNode[T]) ToSlice() []T {
	out := make([]T, 0, n.count)
	for _, c := range n.chunks {
		out = append(out, c...)
	}
	return out
}

func (n *spineNode[T]) Spliterator() spliterator.Spliterator[T] {
	return chunkSpliterator(n.chunks)
}

func chunkSpliterator[T any](chunks [][]T) spliterator.Spliterator[T] {
	if len(chunks) == 1 {
		return spliterator.OfSlice(chunks[0])
	}
	mid := len(chunks) / 2
	return spliterator.Concat(chunkSpliterator(chunks[:mid]), chunkSpliterator(chunks[mid:]))
}

type concatNode[T any] struct {
	left, right Node[T]
	count       int64
}

func (n *concatNode[T]) Count() int64 { return n.count }

func (n *concatNode[T]) ForEach(fn func(T) bool) bool {
	return n.left.ForEach(fn) && n.right.ForEach(fn)
}

func (n *concatNode[T]) ToSlice() []T {
	out := make([]T, 0, n.count)
	n.ForEach(func(v T) bool {
		out = append(out, v)
		return true
	})
	return out
}

func (n *concatNode[T]) Spliterator() spliterator.Spliterator[T] {
	return spliterator.Concat(n.left.Spliterator(), n.right.Spliterator())
}
