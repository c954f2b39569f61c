// Package node provides the ordered output buffers used by parallel
// evaluation.
//
// A Builder accumulates elements in a spined buffer: a list of chunks whose
// capacity doubles, so appends are amortized O(1) and earlier elements are
// never copied. Builders produced by sibling tasks are merged with Join,
// which copies a small right operand and otherwise links both sides into a
// concatenation node. Build seals the builder into an immutable Node.
//
//	var b node.Builder[int]
//	b.Append(1)
//	b.Append(2)
//	n := b.Build()
//	n.ForEach(func(v int) bool { fmt.Println(v); return true })
package node
