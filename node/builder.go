package node

const firstChunkSize = 16

// Builder accumulates elements in encounter order. The zero value is an
// empty builder ready to use. A Builder is not safe for concurrent use.
type Builder[T any] struct {
	sealed Node[T]
	chunks [][]T
	open   int64
}

// Append adds v at the end.
func (b *Builder[T]) Append(v T) {
	last := len(b.chunks) - 1
	if last < 0 || len(b.chunks[last]) == cap(b.chunks[last]) {
		size := firstChunkSize
		if last >= 0 {
			size = 2 * cap(b.chunks[last])
		}
		b.chunks = append(b.chunks, make([]T, 0, size))
		last++
	}
	b.chunks[last] = append(b.chunks[last], v)
	b.open++
}

// Push appends v and reports true, so a Builder can back a downstream.
func (b *Builder[T]) Push(v T) bool {
	b.Append(v)
	return true
}

// Count returns the number of elements appended or joined so far.
func (b *Builder[T]) Count() int64 {
	if b.sealed == nil {
		return b.open
	}
	return b.sealed.Count() + b.open
}

// Join moves the elements of other to the end of b. Fewer than JoinCutoff
// elements are appended directly; larger operands are linked as a
// concatenation node. other is left empty.
func (b *Builder[T]) Join(other *Builder[T]) {
	if other == nil || other == b || other.Count() == 0 {
		return
	}
	if other.Count() < JoinCutoff {
		other.ForEach(func(v T) bool {
			b.Append(v)
			return true
		})
	} else {
		b.seal()
		b.sealed = Concat(b.sealed, other.Build())
	}
	*other = Builder[T]{}
}

// ForEach calls fn for each element in order until fn returns false.
func (b *Builder[T]) ForEach(fn func(T) bool) bool {
	if b.sealed != nil && !b.sealed.ForEach(fn) {
		return false
	}
	for _, c := range b.chunks {
		for _, v := range c {
			if !fn(v) {
				return false
			}
		}
	}
	return true
}

// Build seals the builder and returns its contents. It may be called
// repeatedly; appends after Build extend the builder without affecting
// nodes already returned.
func (b *Builder[T]) Build() Node[T] {
	b.seal()
	if b.sealed == nil {
		return Empty[T]()
	}
	return b.sealed
}

// Reset discards every element.
func (b *Builder[T]) Reset() {
	*b = Builder[T]{}
}

func (b *Builder[T]) seal() {
	if b.open == 0 {
		return
	}
	var n Node[T]
	if len(b.chunks) == 1 {
		n = &arrayNode[T]{items: b.chunks[0]}
	} else {
		n = &spineNode[T]{chunks: b.chunks, count: b.open}
	}
	b.sealed = Concat(b.sealed, n)
	b.chunks = nil
	b.open = 0
}
