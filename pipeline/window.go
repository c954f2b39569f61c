package pipeline

import (
	"context"

	"github.com/kbukum/gatherkit/gather"
	"github.com/kbukum/gatherkit/gatherers"
)

// Window groups values into non-overlapping windows of size values. The
// final partial window is emitted when the source is exhausted.
func Window[T any](p *Pipeline[T], size int) *Pipeline[[]T] {
	return stage(p, func(context.Context) (*gather.Gatherer[T, []T], error) {
		return gatherers.WindowFixed[T](size)
	})
}

// SlidingWindow emits every run of size consecutive values. A source
// shorter than size yields one window with all of its values.
func SlidingWindow[T any](p *Pipeline[T], size int) *Pipeline[[]T] {
	return stage(p, func(context.Context) (*gather.Gatherer[T, []T], error) {
		return gatherers.WindowSliding[T](size)
	})
}
