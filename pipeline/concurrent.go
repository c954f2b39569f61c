package pipeline

import (
	"context"

	"github.com/kbukum/gatherkit/gather"
	"github.com/kbukum/gatherkit/gatherers"
)

// MapConcurrent applies fn with up to n calls running at once and keeps
// the input order. Canceling the run context cancels in-flight calls, and
// the first failure cancels the others and fails the run. Calls still in
// flight when the run ends early, on an upstream error or cancellation,
// see their context canceled.
func MapConcurrent[I, O any](p *Pipeline[I], n int, fn func(context.Context, I) (O, error), opts ...gatherers.Option) *Pipeline[O] {
	return &Pipeline[O]{
		settings: p.settings,
		eval: func(ctx context.Context, s settings, tail *gather.Gatherer[O, any], down gather.Downstream[any]) error {
			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			g, err := gatherers.MapConcurrent(n, fn, append([]gatherers.Option{gatherers.WithContext(runCtx)}, opts...)...)
			if err != nil {
				return err
			}
			fused, err := gather.AndThen(g, tail)
			if err != nil {
				return err
			}
			return p.eval(ctx, s, fused, down)
		},
	}
}
