package spliterator

type mapped[T, U any] struct {
	src Spliterator[T]
	fn  func(T) U
}

// Mapped returns a spliterator applying fn lazily to every element of src.
// Splits are forwarded to src, so fn runs on whichever goroutine traverses
// the split part.
func Mapped[T, U any](src Spliterator[T], fn func(T) U) Spliterator[U] {
	return &mapped[T, U]{src: src, fn: fn}
}

func (m *mapped[T, U]) TryAdvance(action func(U)) bool {
	return m.src.TryAdvance(func(v T) { action(m.fn(v)) })
}

func (m *mapped[T, U]) ForEachRemaining(action func(U)) {
	m.src.ForEachRemaining(func(v T) { action(m.fn(v)) })
}

func (m *mapped[T, U]) TrySplit() Spliterator[U] {
	prefix := m.src.TrySplit()
	if prefix == nil {
		return nil
	}
	return &mapped[T, U]{src: prefix, fn: m.fn}
}

func (m *mapped[T, U]) EstimateSize() int64 { return m.src.EstimateSize() }

func (m *mapped[T, U]) Characteristics() Characteristics {
	return m.src.Characteristics() &^ Immutable
}

type filtered[T any] struct {
	src  Spliterator[T]
	pred func(T) bool
}

// Filtered returns a spliterator over the elements of src matching pred.
// Its size estimate is the upper bound reported by src.
func Filtered[T any](src Spliterator[T], pred func(T) bool) Spliterator[T] {
	return &filtered[T]{src: src, pred: pred}
}

func (f *filtered[T]) TryAdvance(action func(T)) bool {
	for {
		matched := false
		if !f.src.TryAdvance(func(v T) {
			if f.pred(v) {
				matched = true
				action(v)
			}
		}) {
			return false
		}
		if matched {
			return true
		}
	}
}

func (f *filtered[T]) ForEachRemaining(action func(T)) {
	f.src.ForEachRemaining(func(v T) {
		if f.pred(v) {
			action(v)
		}
	})
}

func (f *filtered[T]) TrySplit() Spliterator[T] {
	prefix := f.src.TrySplit()
	if prefix == nil {
		return nil
	}
	return &filtered[T]{src: prefix, pred: f.pred}
}

func (f *filtered[T]) EstimateSize() int64 { return f.src.EstimateSize() }

func (f *filtered[T]) Characteristics() Characteristics {
	return f.src.Characteristics() &^ (Sized | Subsized)
}

type concat[T any] struct {
	left, right Spliterator[T]
	leftDone    bool
}

// Concat returns a spliterator over the elements of a followed by b. The
// first split hands out a whole.
func Concat[T any](a, b Spliterator[T]) Spliterator[T] {
	return &concat[T]{left: a, right: b}
}

func (c *concat[T]) TryAdvance(action func(T)) bool {
	if !c.leftDone {
		if c.left.TryAdvance(action) {
			return true
		}
		c.leftDone = true
	}
	return c.right.TryAdvance(action)
}

func (c *concat[T]) ForEachRemaining(action func(T)) {
	if !c.leftDone {
		c.left.ForEachRemaining(action)
		c.leftDone = true
	}
	c.right.ForEachRemaining(action)
}

func (c *concat[T]) TrySplit() Spliterator[T] {
	if c.leftDone {
		return c.right.TrySplit()
	}
	prefix := c.left
	c.leftDone = true
	return prefix
}

func (c *concat[T]) EstimateSize() int64 {
	r := c.right.EstimateSize()
	if c.leftDone {
		return r
	}
	l := c.left.EstimateSize()
	if l == Unknown || r == Unknown || l+r < 0 {
		return Unknown
	}
	return l + r
}

func (c *concat[T]) Characteristics() Characteristics {
	if c.leftDone {
		return c.right.Characteristics()
	}
	return c.left.Characteristics() & c.right.Characteristics() &^ Subsized
}
