package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"

	"github.com/kbukum/gatherkit/config"
	apperrors "github.com/kbukum/gatherkit/errors"
	"github.com/kbukum/gatherkit/gather"
	"github.com/kbukum/gatherkit/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFromSlice_Collect(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 3}
	if !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFromSlice_Empty(t *testing.T) {
	p := FromSlice([]int{})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestFromSlice_Rerun(t *testing.T) {
	p := Map(FromSlice([]int{1, 2}), func(_ context.Context, n int) (int, error) { return n + 1, nil })
	for range 2 {
		got, err := Collect(context.Background(), p)
		if err != nil {
			t.Fatal(err)
		}
		if !intSliceEqual(got, []int{2, 3}) {
			t.Errorf("got %v, want [2 3]", got)
		}
	}
}

func TestFrom_Iterator(t *testing.T) {
	it := &sliceIter[string]{items: []string{"a", "b"}}
	p := From[string](it)
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v, want [a b]", got)
	}
	if !it.closed {
		t.Error("expected iterator to be closed")
	}
}

func TestFrom_IteratorError(t *testing.T) {
	it := &sliceIter[int]{items: []int{1, 2, 3}, failAt: 2, err: errors.New("read failed")}
	_, err := Collect(context.Background(), From[int](it))
	if err == nil || !strings.Contains(err.Error(), "read failed") {
		t.Errorf("expected iterator error, got %v", err)
	}
	if !it.closed {
		t.Error("expected iterator to be closed")
	}
}

func TestFromSeq_InfiniteWithLimit(t *testing.T) {
	naturals := func(yield func(int) bool) {
		for i := 0; ; i++ {
			if !yield(i) {
				return
			}
		}
	}
	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			p := FromSeq(iter.Seq[int](naturals))
			if parallel {
				p = p.Parallel()
			}
			got, err := Collect(context.Background(), Limit(p, 5))
			if err != nil {
				t.Fatal(err)
			}
			if !intSliceEqual(got, []int{0, 1, 2, 3, 4}) {
				t.Errorf("got %v, want [0 1 2 3 4]", got)
			}
		})
	}
}

func TestFromSeq_EngineBatchBounds(t *testing.T) {
	e, err := gather.NewEngine(config.EngineConfig{Parallelism: 4, BatchUnit: 2, MaxBatch: 4}, gather.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	seq := func(yield func(int) bool) {
		for i := range 100 {
			if !yield(i) {
				return
			}
		}
	}
	p := Map(FromSeq(iter.Seq[int](seq)).WithEngine(e).Parallel(), func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})
	got, err := Collect(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 100 {
		t.Fatalf("expected 100 values, got %d", len(got))
	}
	for i, v := range got {
		if v != i*2 {
			t.Fatalf("value %d out of order: %d", i, v)
		}
	}
}

func TestRange_Count(t *testing.T) {
	n, err := Count(context.Background(), Range(0, 12345).Parallel())
	if err != nil {
		t.Fatal(err)
	}
	if n != 12345 {
		t.Errorf("got %d, want 12345", n)
	}
}

func TestMap(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	doubled := Map(p, func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})
	got, err := Collect(context.Background(), doubled)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{2, 4, 6}
	if !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMap_Error(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	var calls atomic.Int32
	fail := Map(p, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		if n == 2 {
			return 0, errors.New("bad value")
		}
		return n, nil
	})
	_, err := Collect(context.Background(), fail)
	if err == nil || !strings.Contains(err.Error(), "bad value") {
		t.Fatalf("expected map error, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected evaluation to stop at the failing value, got %d calls", calls.Load())
	}
}

func TestMap_TypeConversion(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	strs := Map(p, func(_ context.Context, n int) (string, error) {
		return fmt.Sprintf("#%d", n), nil
	})
	got, err := Collect(context.Background(), strs)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"#1", "#2", "#3"}
	if !strSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFlatMap(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	expanded := FlatMap(p, func(_ context.Context, n int) (Iterator[int], error) {
		return &sliceIter[int]{items: []int{n, n * 10}}, nil
	})
	got, err := Collect(context.Background(), expanded)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 10, 2, 20, 3, 30}
	if !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFlatMap_EmptyInner(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	expanded := FlatMap(p, func(_ context.Context, n int) (Iterator[int], error) {
		if n == 2 {
			return &sliceIter[int]{items: nil}, nil
		}
		return &sliceIter[int]{items: []int{n}}, nil
	})
	got, err := Collect(context.Background(), expanded)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 3}
	if !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFlatMap_StopsInnerOnLimit(t *testing.T) {
	inner := &sliceIter[int]{items: []int{1, 2, 3, 4, 5}}
	expanded := FlatMap(FromSlice([]int{0}), func(_ context.Context, _ int) (Iterator[int], error) {
		return inner, nil
	})
	got, err := Collect(context.Background(), Limit(expanded, 2))
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2}) {
		t.Errorf("got %v, want [1 2]", got)
	}
	if inner.index != 2 || !inner.closed {
		t.Errorf("expected inner iterator to stop after 2 values and close, index=%d closed=%v", inner.index, inner.closed)
	}
}

func TestFilter(t *testing.T) {
	p := FromSlice([]int{1, 2, 3, 4, 5, 6})
	evens := Filter(p, func(n int) bool { return n%2 == 0 })
	got, err := Collect(context.Background(), evens)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{2, 4, 6}
	if !intSliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilter_None(t *testing.T) {
	p := FromSlice([]int{1, 3, 5})
	evens := Filter(p, func(n int) bool { return n%2 == 0 })
	got, err := Collect(context.Background(), evens)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestTap(t *testing.T) {
	var tapped []int
	p := FromSlice([]int{1, 2, 3})
	observed := Tap(p, func(_ context.Context, n int) error {
		tapped = append(tapped, n)
		return nil
	})
	got, err := Collect(context.Background(), observed)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("values should pass through unchanged, got %v", got)
	}
	if !intSliceEqual(tapped, []int{1, 2, 3}) {
		t.Errorf("tap should see all values, got %v", tapped)
	}
}

func TestTap_Error(t *testing.T) {
	p := FromSlice([]int{1, 2, 3})
	failing := Tap(p, func(_ context.Context, n int) error {
		if n == 2 {
			return errors.New("tap failed")
		}
		return nil
	})
	_, err := Collect(context.Background(), failing)
	if err == nil || !strings.Contains(err.Error(), "tap failed") {
		t.Errorf("expected tap error, got %v", err)
	}
}

func TestFanOut(t *testing.T) {
	p := FromSlice([]int{10})
	fanned := FanOut(p,
		func(_ context.Context, n int) (string, error) { return fmt.Sprintf("a:%d", n), nil },
		func(_ context.Context, n int) (string, error) { return fmt.Sprintf("b:%d", n), nil },
	)
	got, err := Collect(context.Background(), fanned)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || len(got[0]) != 2 {
		t.Fatalf("expected [[a:10 b:10]], got %v", got)
	}
	if got[0][0] != "a:10" || got[0][1] != "b:10" {
		t.Errorf("got %v, want [a:10 b:10]", got[0])
	}
}

func TestFanOut_Error(t *testing.T) {
	p := FromSlice([]int{1})
	fanned := FanOut(p,
		func(_ context.Context, n int) (int, error) { return n, nil },
		func(_ context.Context, _ int) (int, error) { return 0, errors.New("branch failed") },
	)
	_, err := Collect(context.Background(), fanned)
	if err == nil || !strings.Contains(err.Error(), "branch failed") {
		t.Errorf("expected branch error, got %v", err)
	}
}

func TestTapEach(t *testing.T) {
	var first, second []string
	p := FromSlice([][]string{{"a", "b"}, {"c", "d"}})
	tapped := TapEach(p,
		func(_ context.Context, s string) error { first = append(first, s); return nil },
		func(_ context.Context, s string) error { second = append(second, s); return nil },
	)
	got, err := Collect(context.Background(), tapped)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 slices, got %v", got)
	}
	if !strSliceEqual(first, []string{"a", "c"}) || !strSliceEqual(second, []string{"b", "d"}) {
		t.Errorf("first=%v second=%v", first, second)
	}
}

func TestReduce(t *testing.T) {
	p := FromSlice([]int{1, 2, 3, 4})
	sum := Reduce(p, 0, func(acc, n int) int { return acc + n })
	got, err := Collect(context.Background(), sum)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{10}) {
		t.Errorf("got %v, want [10]", got)
	}
}

func TestReduce_Empty(t *testing.T) {
	p := FromSlice([]int{})
	sum := Reduce(p, 7, func(acc, n int) int { return acc + n })
	got, err := Collect(context.Background(), sum)
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{7}) {
		t.Errorf("expected the initial value, got %v", got)
	}
}

func TestCollectWith_Joining(t *testing.T) {
	p := Map(Range(1, 6).Parallel(), func(_ context.Context, n int) (string, error) {
		return fmt.Sprint(n), nil
	})
	got, err := CollectWith(context.Background(), p, gather.Joining(","))
	if err != nil {
		t.Fatal(err)
	}
	if got != "1,2,3,4,5" {
		t.Errorf("got %q", got)
	}
}

func TestDrain_Run(t *testing.T) {
	var sunk []int
	r := Drain(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) error {
		sunk = append(sunk, n)
		return nil
	})
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(sunk, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", sunk)
	}
}

func TestDrain_SinkErrorStops(t *testing.T) {
	var sunk []int
	r := Drain(Range(0, 100), func(_ context.Context, n int) error {
		if n == 3 {
			return errors.New("sink full")
		}
		sunk = append(sunk, n)
		return nil
	})
	err := r.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "sink full") {
		t.Fatalf("expected sink error, got %v", err)
	}
	if !intSliceEqual(sunk, []int{0, 1, 2}) {
		t.Errorf("got %v, want [0 1 2]", sunk)
	}
}

func TestForEach(t *testing.T) {
	var total int
	err := ForEach(context.Background(), Range(1, 5).Parallel(), func(_ context.Context, n int) error {
		total += n
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if total != 10 {
		t.Errorf("got %d, want 10", total)
	}
}

func TestContext_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(ctx, FromSlice([]int{1, 2, 3}))
	if !apperrors.HasCode(err, apperrors.ErrCodeCanceled) {
		t.Errorf("expected CANCELED, got %v", err)
	}
}

func TestModes(t *testing.T) {
	e, err := gather.NewEngine(config.EngineConfig{Parallelism: 2}, gather.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	p := FromSlice([]int{1})
	if p.Mode() != gather.Sequential {
		t.Errorf("expected sequential by default, got %s", p.Mode())
	}
	par := p.WithEngine(e).Parallel()
	if par.Mode() != gather.Parallel || p.Mode() != gather.Sequential {
		t.Error("Parallel must return a copy")
	}
	mapped := Map(par, func(_ context.Context, n int) (int, error) { return n, nil })
	if mapped.Mode() != gather.Parallel || mapped.engine != e {
		t.Error("operators must keep the evaluation settings")
	}
	if mapped.Sequential().Mode() != gather.Sequential {
		t.Error("Sequential must switch the mode back")
	}
}

func TestChained_Pipeline(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			src := Range(0, 10_000)
			if parallel {
				src = src.Parallel()
			}
			squares := Map(src, func(_ context.Context, n int) (int, error) { return n * n, nil })
			evens := Filter(squares, func(n int) bool { return n%2 == 0 })
			labels := Map(Limit(evens, 4), func(_ context.Context, n int) (string, error) {
				return fmt.Sprintf("sq:%d", n), nil
			})
			got, err := Collect(context.Background(), labels)
			if err != nil {
				t.Fatal(err)
			}
			want := []string{"sq:0", "sq:4", "sq:16", "sq:36"}
			if !strSliceEqual(got, want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestFanOut_TapEach_Pipeline(t *testing.T) {
	var pubA, pubB atomic.Int32
	src := FromSlice([]string{"hello", "world"})
	fanned := FanOut(src,
		func(_ context.Context, s string) (string, error) { return "sentiment:" + s, nil },
		func(_ context.Context, s string) (string, error) { return "fraud:" + s, nil },
	)
	tapped := TapEach(fanned,
		func(_ context.Context, _ string) error { pubA.Add(1); return nil },
		func(_ context.Context, _ string) error { pubB.Add(1); return nil },
	)
	got, err := Collect(context.Background(), tapped)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0][0] != "sentiment:hello" || got[0][1] != "fraud:hello" {
		t.Errorf("first result = %v", got[0])
	}
	if pubA.Load() != 2 || pubB.Load() != 2 {
		t.Errorf("pubA=%d pubB=%d, want 2 each", pubA.Load(), pubB.Load())
	}
}

// --- helpers ---

type sliceIter[T any] struct {
	items  []T
	index  int
	failAt int
	err    error
	closed bool
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	var zero T
	if it.err != nil && it.index == it.failAt {
		return zero, false, it.err
	}
	if it.index >= len(it.items) {
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error {
	it.closed = true
	return nil
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func strSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
