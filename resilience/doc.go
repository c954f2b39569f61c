// Package resilience provides the concurrency limiter used by concurrent
// gatherers.
//
// A Bulkhead admits at most MaxConcurrent holders at a time. Acquire blocks
// until a slot frees up or the context is done, and the OnAcquire and
// OnRelease callbacks let callers track occupancy:
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{
//	    Name:          "map-concurrent",
//	    MaxConcurrent: 4,
//	    OnAcquire:     func(string) { inFlight.Add(1) },
//	    OnRelease:     func(string) { inFlight.Add(-1) },
//	})
//	if err := bh.Acquire(ctx); err != nil { ... }
//	defer bh.Release()
package resilience
