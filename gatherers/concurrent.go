package gatherers

import (
	"context"

	"github.com/kbukum/gatherkit/errors"
	"github.com/kbukum/gatherkit/forkjoin"
	"github.com/kbukum/gatherkit/gather"
	"github.com/kbukum/gatherkit/logger"
	"github.com/kbukum/gatherkit/observability"
	"github.com/kbukum/gatherkit/resilience"
	"github.com/kbukum/gatherkit/validation"
)

// Option configures MapConcurrent.
type Option func(*concurrentOptions)

type concurrentOptions struct {
	ctx     context.Context
	name    string
	metrics *observability.Metrics
	log     *logger.Logger
}

// WithContext sets the parent of the context passed to the mapper.
// Canceling it cancels every in-flight task. Integrators cannot see the
// evaluation context, so when an evaluation ends without reaching the
// finisher, on an error in another stage or a canceled evaluation, the
// tasks still in flight stop only once this context is canceled. Callers
// evaluating MapConcurrent directly should pass a context they cancel
// after the evaluation returns.
func WithContext(ctx context.Context) Option {
	return func(o *concurrentOptions) { o.ctx = ctx }
}

// WithName names the admission bulkhead in logs.
func WithName(name string) Option {
	return func(o *concurrentOptions) { o.name = name }
}

// WithMetrics reports in-flight tasks on the map_concurrent.in_flight gauge.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *concurrentOptions) { o.metrics = m }
}

// WithLogger sets the logger used for cancellation and failure events.
func WithLogger(l *logger.Logger) Option {
	return func(o *concurrentOptions) { o.log = l }
}

// MapConcurrent maps each element on its own goroutine with at most
// maxConcurrency tasks outstanding, and emits the results in input order.
//
// The first failure observed in input order, an error or a panic, cancels
// the context of every other task, waits for them to return and fails the
// evaluation with a TASK_FAILED error. A downstream that starts rejecting
// cancels the outstanding tasks the same way.
func MapConcurrent[T, R any](maxConcurrency int, mapper func(ctx context.Context, v T) (R, error), opts ...Option) (*gather.Gatherer[T, R], error) {
	if err := validation.New().
		Positive("maxConcurrency", maxConcurrency).
		NotNil("mapper", mapper).
		Err(); err != nil {
		return nil, err
	}

	o := concurrentOptions{ctx: context.Background(), name: "map_concurrent"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get(logger.ComponentGatherers)
	}

	return gather.OfSequential(
		func() *concurrentState[T, R] { return newConcurrentState(maxConcurrency, mapper, &o) },
		gather.Greedy((*concurrentState[T, R]).integrate),
		(*concurrentState[T, R]).finish,
	)
}

type concurrentState[T, R any] struct {
	ctx      context.Context
	cancel   context.CancelFunc
	mapper   func(context.Context, T) (R, error)
	bulkhead *resilience.Bulkhead
	window   []*forkjoin.Task[R]
	log      *logger.Logger
}

func newConcurrentState[T, R any](n int, mapper func(context.Context, T) (R, error), o *concurrentOptions) *concurrentState[T, R] {
	ctx, cancel := context.WithCancel(o.ctx)
	cfg := resilience.BulkheadConfig{
		Name:          o.name,
		MaxConcurrent: n,
	}
	if m := o.metrics; m != nil {
		parent := context.WithoutCancel(o.ctx)
		cfg.OnAcquire = func(string) { m.AddInFlight(parent, 1) }
		cfg.OnRelease = func(string) { m.AddInFlight(parent, -1) }
	}
	return &concurrentState[T, R]{
		ctx:      ctx,
		cancel:   cancel,
		mapper:   mapper,
		bulkhead: resilience.NewBulkhead(cfg),
		window:   make([]*forkjoin.Task[R], 0, n),
		log:      o.log.WithComponent(o.name),
	}
}

func (s *concurrentState[T, R]) integrate(v T, d gather.Downstream[R]) error {
	if d.IsRejecting() {
		s.abort("downstream rejecting")
		return nil
	}
	for len(s.window) >= s.bulkhead.MaxConcurrent() {
		if err := s.emitHead(d); err != nil {
			return err
		}
		if d.IsRejecting() {
			return nil
		}
	}

	if err := s.bulkhead.Acquire(s.ctx); err != nil {
		s.abort("admission failed")
		return errors.TaskFailed(err)
	}
	s.window = append(s.window, forkjoin.Fork(func() (R, error) {
		defer s.bulkhead.Release()
		return s.mapper(s.ctx, v)
	}))

	for len(s.window) > 0 && done(s.window[0]) {
		if err := s.emitHead(d); err != nil {
			return err
		}
	}
	return nil
}

func (s *concurrentState[T, R]) finish(d gather.Downstream[R]) error {
	defer s.cancel()
	for len(s.window) > 0 {
		if d.IsRejecting() {
			s.abort("downstream rejecting")
			return nil
		}
		if err := s.emitHead(d); err != nil {
			return err
		}
	}
	return nil
}

// emitHead waits for the oldest task and pushes its result.
func (s *concurrentState[T, R]) emitHead(d gather.Downstream[R]) error {
	head := s.window[0]
	s.window[0] = nil
	s.window = s.window[1:]

	v, err := head.Wait()
	if err != nil {
		s.log.Warn("mapping task failed", logger.ErrorFields("map", err))
		s.abort("task failed")
		return errors.TaskFailed(err)
	}
	if !d.Push(v) {
		s.abort("downstream rejecting")
	}
	return nil
}

// abort cancels the outstanding tasks and waits for them to return.
func (s *concurrentState[T, R]) abort(reason string) {
	s.cancel()
	if len(s.window) == 0 {
		return
	}
	s.log.Debug("canceling in-flight tasks", logger.Fields("reason", reason, "tasks", len(s.window)))
	for _, t := range s.window {
		_, _ = t.Wait()
	}
	clear(s.window)
	s.window = s.window[:0]
}

func done[R any](t *forkjoin.Task[R]) bool {
	select {
	case <-t.Done():
		return true
	default:
		return false
	}
}
