package gather

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/atomic"

	"github.com/kbukum/gatherkit/config"
	"github.com/kbukum/gatherkit/errors"
	"github.com/kbukum/gatherkit/logger"
	"github.com/kbukum/gatherkit/observability"
	"github.com/kbukum/gatherkit/spliterator"
)

func TestMode_String(t *testing.T) {
	if Sequential.String() != "sequential" || Parallel.String() != "parallel" || Mode(9).String() != "unknown" {
		t.Error("unexpected mode names")
	}
}

func TestNewEngine_Config(t *testing.T) {
	e, err := NewEngine(config.EngineConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if e.Config().LeafTargetFactor != config.DefaultLeafTargetFactor {
		t.Errorf("expected default leaf factor, got %d", e.Config().LeafTargetFactor)
	}
	if e.Pool().Parallelism() != e.Config().Parallelism {
		t.Error("pool parallelism must follow the config")
	}
	if _, err := NewEngine(config.EngineConfig{LeafTargetFactor: 100}); err == nil {
		t.Error("expected an out-of-range leaf factor to be rejected")
	}
}

func TestFromConfig_SeedsEngineAndLogging(t *testing.T) {
	prev := logger.Root()
	t.Cleanup(func() { logger.SetRoot(prev) })

	cfg := config.Config{Name: "svc", Engine: config.EngineConfig{Parallelism: 2}}
	cfg.Logging.Format = logger.FormatJSON
	cfg.Logging.Output = "stderr"
	cfg.Observability.Metrics = true
	cfg.ApplyDefaults()

	e, err := FromConfig(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !e.Config().Debug || e.Pool().Parallelism() != 2 {
		t.Errorf("unexpected engine config %+v", e.Config())
	}
	if !logger.Get(logger.ComponentGather).DebugEnabled() {
		t.Error("expected debug engines to log the gather component at debug level")
	}
	if logger.Get(logger.ComponentGatherers).DebugEnabled() {
		t.Error("expected other components to keep the root level")
	}
}

func TestEvaluate_RejectsNilArguments(t *testing.T) {
	err := Evaluate[int, int](context.Background(), nil, nil, mapper(t, func(v int) int { return v }), Discard[int](), Sequential)
	if !errors.HasCode(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestEvaluate_ParallelMatchesSequential(t *testing.T) {
	e := testEngine(t, 4)
	double := func() *Gatherer[int, int] { return mapper(t, func(v int) int { return v * 2 }) }
	third := func() *Gatherer[int, int] { return filter(t, func(v int) bool { return v%3 == 0 }) }

	tests := []struct {
		name string
		run  func(mode Mode) any
	}{
		{"stateless chain", func(mode Mode) any {
			return evaluate(t, e, rangeOf(0, 10000), then(t, double(), third()), mode)
		}},
		{"stateful without combiner", func(mode Mode) any {
			return evaluate(t, e, rangeOf(0, 10000), then(t, double(), indexed(t)), mode)
		}},
		{"sequential first stage", func(mode Mode) any {
			return evaluate(t, e, rangeOf(0, 10000), then(t, indexed(t), mapper(t, func(p [2]int) int { return p[0] - p[1] })), mode)
		}},
		{"combiner", func(mode Mode) any {
			return evaluate(t, e, rangeOf(0, 10000), then(t, third(), sum(t)), mode)
		}},
		{"unknown size", func(mode Mode) any {
			src := spliterator.FromSeq(slices.Values(lo.Range(5000)), spliterator.WithBatch(64, 512))
			defer src.Close()
			return evaluate[int, int](t, e, src, double(), mode)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seq := tc.run(Sequential)
			par := tc.run(Parallel)
			if fmt.Sprint(seq) != fmt.Sprint(par) {
				t.Errorf("parallel output differs from sequential")
			}
		})
	}
}

func TestEvaluate_AndThenIdentity(t *testing.T) {
	e := testEngine(t, 4)
	for _, mode := range []Mode{Sequential, Parallel} {
		plain := evaluate(t, e, rangeOf(0, 3000), indexed(t), mode)
		withID := evaluate(t, e, rangeOf(0, 3000), then(t, indexed(t), mapper(t, func(p [2]int) [2]int { return p })), mode)
		if !slices.Equal(plain, withID) {
			t.Errorf("%s: identity map changed the output", mode)
		}
	}
}

func TestEvaluate_MergeAssociativity(t *testing.T) {
	want := evaluate(t, testEngine(t, 1), rangeOf(0, 20000), sum(t), Sequential)
	for _, p := range []int{2, 3, 8} {
		for _, factor := range []int{1, 7, 16} {
			e, err := NewEngine(config.EngineConfig{Parallelism: p, LeafTargetFactor: factor}, WithLogger(logger.Nop()))
			if err != nil {
				t.Fatal(err)
			}
			got := evaluate(t, e, rangeOf(0, 20000), sum(t), Parallel)
			if !slices.Equal(got, want) {
				t.Errorf("parallelism %d factor %d: got %v, want %v", p, factor, got, want)
			}
		}
	}
}

func TestEvaluate_ShortCircuitBoundsOutput(t *testing.T) {
	e := testEngine(t, 4)
	tests := []struct {
		name  string
		first func() *Gatherer[int, int]
		n     int
	}{
		{"take n", func() *Gatherer[int, int] { return takeN(t, 50) }, 50},
		{"take while", func() *Gatherer[int, int] { return takeWhile(t, func(v int) bool { return v < 500 }) }, 500},
	}
	for _, tc := range tests {
		for _, mode := range []Mode{Sequential, Parallel} {
			t.Run(tc.name+"/"+mode.String(), func(t *testing.T) {
				var calls atomic.Int64
				got := evaluate(t, e, rangeOf(0, 100000), then(t, tc.first(), counted[int](t, &calls)), mode)
				if !slices.Equal(got, lo.Range(tc.n)) {
					t.Errorf("expected the first %d elements, got %d elements", tc.n, len(got))
				}
				if calls.Load() != int64(tc.n) {
					t.Errorf("second stage saw %d elements, want %d", calls.Load(), tc.n)
				}
			})
		}
	}
}

func TestEvaluate_GreedyAfterShortCircuitingStage(t *testing.T) {
	e := testEngine(t, 4)
	var calls atomic.Int64
	build := func() *Gatherer[int, [2]int] {
		return then(t, then(t, takeN(t, 100), counted[int](t, &calls)), indexed(t))
	}
	seq := evaluate(t, e, rangeOf(0, 50000), build(), Sequential)
	calls.Store(0)
	par := evaluate(t, e, rangeOf(0, 50000), build(), Parallel)
	if !slices.Equal(seq, par) {
		t.Error("parallel output differs from sequential")
	}
	if calls.Load() != 100 {
		t.Errorf("greedy stage integrated %d elements, want 100", calls.Load())
	}
	if len(lo.Uniq(par)) != 100 {
		t.Error("elements were integrated twice")
	}
}

func TestEvaluate_SpeculativePrefixKeepsOrder(t *testing.T) {
	e := testEngine(t, 4)
	var calls atomic.Int64
	got := evaluate(t, e, rangeOf(0, 100000), then(t, counted[int](t, &calls), takeN(t, 30)), Parallel)
	if !slices.Equal(got, lo.Range(30)) {
		t.Errorf("expected the first 30 elements, got %v", got)
	}
	if calls.Load() < 30 {
		t.Errorf("expected at least 30 mapped elements, got %d", calls.Load())
	}
}

func TestEvaluate_RejectingDownstream(t *testing.T) {
	e := testEngine(t, 4)
	for _, mode := range []Mode{Sequential, Parallel} {
		t.Run(mode.String(), func(t *testing.T) {
			finished := 0
			g, err := StatelessWithFinisher(
				Greedy(func(_ Void, v int, d Downstream[int]) error {
					d.Push(v)
					return nil
				}),
				func(d Downstream[int]) error {
					finished++
					d.Push(-1)
					return nil
				},
			)
			if err != nil {
				t.Fatal(err)
			}
			var got []int
			err = Evaluate(t.Context(), e, rangeOf(0, 10000), g, DownstreamFunc(func(v int) bool {
				got = append(got, v)
				return len(got) < 3
			}), mode)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, []int{0, 1, 2}) {
				t.Errorf("expected [0 1 2], got %v", got)
			}
			if finished != 1 {
				t.Errorf("expected one finisher call, got %d", finished)
			}
		})
	}
}

// doneDownstream rejects from the start.
type doneDownstream struct{ pushes int }

func (d *doneDownstream) Push(int) bool     { d.pushes++; return false }
func (d *doneDownstream) IsRejecting() bool { return true }

func TestEvaluate_DownstreamRejectingBeforeFirstElement(t *testing.T) {
	e := testEngine(t, 4)
	tests := []struct {
		name  string
		build func(calls *atomic.Int64) *Gatherer[int, int]
	}{
		{"combinable", func(calls *atomic.Int64) *Gatherer[int, int] { return counted[int](t, calls) }},
		{"sequential only", func(calls *atomic.Int64) *Gatherer[int, int] { return then(t, indexedValue(t), counted[int](t, calls)) }},
		{"stateless prefix", func(calls *atomic.Int64) *Gatherer[int, int] {
			return then(t, counted[int](t, calls), indexedValue(t))
		}},
	}
	for _, tc := range tests {
		for _, mode := range []Mode{Sequential, Parallel} {
			t.Run(tc.name+"/"+mode.String(), func(t *testing.T) {
				var calls atomic.Int64
				down := &doneDownstream{}
				if err := Evaluate(t.Context(), e, rangeOf(0, 10000), tc.build(&calls), down, mode); err != nil {
					t.Fatal(err)
				}
				if calls.Load() != 0 || down.pushes != 0 {
					t.Errorf("expected no integration, got %d integrator calls and %d pushes", calls.Load(), down.pushes)
				}
			})
		}
	}
}

func TestEvaluate_ShortCircuitCancelsLaterLeaves(t *testing.T) {
	e := testEngine(t, 4)
	const size = 1000000
	var calls atomic.Int64
	got := evaluate(t, e, rangeOf(0, size), takeWhile(t, func(v int) bool {
		calls.Inc()
		return v != 10
	}), Parallel)
	if !slices.Equal(got, lo.Range(10)) {
		t.Errorf("expected the first 10 elements, got %v", got)
	}
	if calls.Load() > size/4 {
		t.Errorf("predicate ran %d times; later leaves were not canceled", calls.Load())
	}
}

func TestEvaluate_NestedParallelOnSameEngine(t *testing.T) {
	e := testEngine(t, 4)
	total := sum(t)
	const want = 9999 * 10000 / 2
	for _, outer := range []struct {
		name string
		g    func(inner func(int) int) *Gatherer[int, int]
	}{
		{"combinable", func(inner func(int) int) *Gatherer[int, int] { return mapper(t, inner) }},
		{"sequential only", func(inner func(int) int) *Gatherer[int, int] {
			return then(t, mapper(t, inner), indexedValue(t))
		}},
	} {
		t.Run(outer.name, func(t *testing.T) {
			var failures atomic.Int64
			inner := func(int) int {
				out, err := Collect(context.Background(), e, rangeOf(0, 10000), total, ToSlice[int](), Parallel)
				if err != nil || len(out) != 1 {
					failures.Inc()
					return -1
				}
				return out[0]
			}
			g := outer.g(inner)
			done := make(chan []int)
			go func() {
				out, _ := Collect(context.Background(), e, rangeOf(0, 64), g, ToSlice[int](), Parallel)
				done <- out
			}()
			select {
			case got := <-done:
				if failures.Load() != 0 {
					t.Fatalf("%d inner evaluations failed", failures.Load())
				}
				if len(got) != 64 || lo.Count(got, want) != 64 {
					t.Errorf("expected 64 inner totals of %d, got %v", want, got)
				}
			case <-time.After(10 * time.Second):
				t.Fatal("nested evaluation did not finish")
			}
		})
	}
}

func TestEvaluate_EmptyInput(t *testing.T) {
	e := testEngine(t, 4)
	for _, mode := range []Mode{Sequential, Parallel} {
		t.Run(mode.String(), func(t *testing.T) {
			inits, finishes := 0, 0
			g, err := OfSequential(
				func() int { inits++; return 0 },
				Greedy(func(int, int, Downstream[int]) error { return nil }),
				func(_ int, d Downstream[int]) error {
					finishes++
					return nil
				},
			)
			if err != nil {
				t.Fatal(err)
			}
			got := evaluate(t, e, rangeOf(0, 0), g, mode)
			if len(got) != 0 || inits != 1 || finishes != 1 {
				t.Errorf("got %v with %d initializer and %d finisher calls", got, inits, finishes)
			}
		})
	}
}

func TestEvaluate_ErrorsPropagate(t *testing.T) {
	e := testEngine(t, 4)
	early := fmt.Errorf("failed at 100")
	late := fmt.Errorf("failed at 9000")
	failing := func() *Gatherer[int, int] {
		g, err := Stateless(Greedy(func(_ Void, v int, d Downstream[int]) error {
			switch v {
			case 100:
				return early
			case 9000:
				return late
			}
			d.Push(v)
			return nil
		}))
		return mustGatherer(t, g, err)
	}
	tests := []struct {
		name string
		g    func() *Gatherer[int, int]
	}{
		{"stateless", failing},
		{"with combiner", func() *Gatherer[int, int] { return then(t, failing(), sum(t)) }},
		{"without combiner", func() *Gatherer[int, int] {
			return then(t, then(t, indexed(t), mapper(t, func(p [2]int) int { return p[1] })), failing())
		}},
	}
	for _, tc := range tests {
		for _, mode := range []Mode{Sequential, Parallel} {
			t.Run(tc.name+"/"+mode.String(), func(t *testing.T) {
				err := Evaluate(t.Context(), e, rangeOf(0, 10000), tc.g(), Discard[int](), mode)
				if !stderrors.Is(err, early) {
					t.Errorf("expected the first failure, got %v", err)
				}
			})
		}
	}
}

func TestEvaluate_PanicsPropagate(t *testing.T) {
	e := testEngine(t, 4)
	for _, mode := range []Mode{Sequential, Parallel} {
		t.Run(mode.String(), func(t *testing.T) {
			g := mapper(t, func(v int) int {
				if v == 7000 {
					panic("mapper blew up")
				}
				return v
			})
			defer func() {
				if r := recover(); r != "mapper blew up" {
					t.Errorf("expected the original panic value, got %v", r)
				}
			}()
			_ = Evaluate(t.Context(), e, rangeOf(0, 10000), g, Discard[int](), mode)
			t.Error("expected a panic")
		})
	}
}

func TestEvaluate_CanceledContext(t *testing.T) {
	e := testEngine(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, mode := range []Mode{Sequential, Parallel} {
		err := Evaluate(ctx, e, rangeOf(0, 10000), sum(t), Discard[int](), mode)
		if !errors.HasCode(err, errors.ErrCodeCanceled) || !stderrors.Is(err, context.Canceled) {
			t.Errorf("%s: expected CANCELED wrapping context.Canceled, got %v", mode, err)
		}
	}
}

func TestEvaluate_RecordsSpansAndMetrics(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	e, err := NewEngine(config.EngineConfig{Parallelism: 4},
		WithLogger(logger.Nop()), WithMetrics(metrics), WithTracing(true))
	if err != nil {
		t.Fatal(err)
	}
	evaluate(t, e, rangeOf(0, 1000), sum(t), Parallel)

	var evaluations, leaves int
	for _, s := range exporter.GetSpans() {
		switch s.Name {
		case observability.SpanEvaluate:
			evaluations++
		case observability.SpanLeaf:
			leaves++
		}
	}
	if evaluations != 1 || leaves < 2 {
		t.Errorf("expected 1 evaluation span and several leaf spans, got %d and %d", evaluations, leaves)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	sums := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if s, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	if sums["evaluation.total"] != 1 || sums["evaluation.tasks"] != int64(leaves) {
		t.Errorf("unexpected metric sums %v", sums)
	}
}
