package gather

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/gatherkit/config"
	"github.com/kbukum/gatherkit/errors"
	"github.com/kbukum/gatherkit/forkjoin"
	"github.com/kbukum/gatherkit/logger"
	"github.com/kbukum/gatherkit/observability"
	"github.com/kbukum/gatherkit/spliterator"
	"github.com/kbukum/gatherkit/validation"
)

// Mode selects how an evaluation uses parallelism.
type Mode int

const (
	// Sequential evaluates on the calling goroutine in encounter order.
	Sequential Mode = iota
	// Parallel splits the source and evaluates parts concurrently. Output
	// order is the encounter order in both modes.
	Parallel
)

func (m Mode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// Engine evaluates gatherers over spliterators.
type Engine struct {
	cfg     config.EngineConfig
	pool    *forkjoin.Pool
	log     *logger.Logger
	metrics *observability.Metrics
	tracing bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// WithMetrics records evaluation metrics on m.
func WithMetrics(m *observability.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithTracing opens a span per evaluation.
func WithTracing(enabled bool) EngineOption {
	return func(e *Engine) { e.tracing = enabled }
}

// WithPool shares a pool between engines.
func WithPool(p *forkjoin.Pool) EngineOption {
	return func(e *Engine) { e.pool = p }
}

// NewEngine creates an engine. Zero config fields take their defaults.
func NewEngine(cfg config.EngineConfig, opts ...EngineOption) (*Engine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get(logger.ComponentGather)
	}
	if e.pool == nil {
		e.pool = forkjoin.NewPool(cfg.Parallelism)
	}
	return e, nil
}

// FromConfig installs the logging configured in cfg and creates an engine
// from its engine section, with tracing and metrics as configured.
func FromConfig(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	logger.Init(cfg.Logging)
	base := []EngineOption{WithTracing(cfg.Observability.Tracing)}
	if cfg.Observability.Metrics {
		m, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
		if err != nil {
			return nil, err
		}
		base = append(base, WithMetrics(m))
	}
	return NewEngine(cfg.Engine, append(base, opts...)...)
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// DefaultEngine returns a shared engine with the default configuration.
func DefaultEngine() *Engine {
	defaultEngineOnce.Do(func() {
		e, err := NewEngine(config.DefaultEngineConfig())
		if err != nil {
			panic(err)
		}
		defaultEngine = e
	})
	return defaultEngine
}

// Config returns the effective configuration.
func (e *Engine) Config() config.EngineConfig { return e.cfg }

// Pool returns the pool running leaf work.
func (e *Engine) Pool() *forkjoin.Pool { return e.pool }

// Evaluate runs g over src and pushes its output to down. Hook errors are
// returned unchanged; a canceled ctx yields a CANCELED error. The
// finisher runs once per evaluation, also after a short-circuit.
func Evaluate[T, R any](ctx context.Context, e *Engine, src spliterator.Spliterator[T], g *Gatherer[T, R], down Downstream[R], mode Mode) error {
	if err := validation.New().
		NotNil("source", src).
		NotNil("gatherer", g).
		NotNil("downstream", down).
		Err(); err != nil {
		return err
	}
	if e == nil {
		e = DefaultEngine()
	}
	erasedSrc := spliterator.Mapped(src, func(v T) any { return v })
	return e.run(ctx, erasedSrc, g.stages, g.fused, erased(down), neverRejects(down), mode)
}

// Collect runs g over src and reduces its output with c.
func Collect[T, R, C, X any](ctx context.Context, e *Engine, src spliterator.Spliterator[T], g *Gatherer[T, R], c Collector[R, C, X], mode Mode) (X, error) {
	var zero X
	terminal, err := Collecting(c)
	if err != nil {
		return zero, err
	}
	full, err := AndThen(g, terminal)
	if err != nil {
		return zero, err
	}
	out := &captureDownstream[X]{}
	if err := Evaluate(ctx, e, src, full, out, mode); err != nil {
		return zero, err
	}
	if !out.set {
		return zero, errors.IllegalState("collector produced no result")
	}
	return out.val, nil
}

type outcome struct {
	leaves       int
	shortCircuit bool
}

// evaluation carries what one run needs.
type evaluation struct {
	ctx    context.Context
	engine *Engine
	stages []*stage
	st     *stage
	log    *logger.Logger
}

func (e *Engine) run(ctx context.Context, src spliterator.Spliterator[any], stages []*stage, fused *stage, down Downstream[any], nr bool, mode Mode) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	evalID := uuid.NewString()
	ec := observability.NewEvaluationContext(evalID, mode.String(), len(stages), e.metrics, e.tracing)
	ctx, span := ec.Start(ctx)
	ctx = logger.ContextWithEvalID(ctx, evalID)

	ev := &evaluation{
		ctx:    ctx,
		engine: e,
		stages: stages,
		st:     fused,
		log:    e.log.WithEvaluation(evalID, mode.String()),
	}

	var res outcome
	defer func() {
		if r := recover(); r != nil {
			ec.End(ctx, span, observability.StatusError, res.leaves, errors.Panic(r))
			panic(r)
		}
		status := observability.StatusOK
		switch {
		case err != nil:
			status = observability.StatusError
		case res.shortCircuit:
			status = observability.StatusShortCircuit
		}
		ec.End(ctx, span, status, res.leaves, err)
		if ev.log.DebugEnabled() {
			ev.log.Debug("evaluation finished", logger.Fields(
				logger.FieldStatus, status,
				logger.FieldLeaves, res.leaves,
				logger.FieldStages, len(stages),
				logger.FieldDuration, ec.Duration().Milliseconds(),
			))
		}
	}()

	if err := ctx.Err(); err != nil {
		return errors.Canceled(err)
	}
	switch {
	case mode != Parallel || e.pool.Parallelism() < 2 || down.IsRejecting():
		res, err = ev.sequential(src, down, nr)
	case ev.st.combiner != nil:
		res, err = ev.parallel(src, down, nr)
	default:
		res, err = ev.hybrid(src, down, nr)
	}
	return err
}
