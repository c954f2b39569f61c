// Package observability provides OpenTelemetry tracing and metrics for
// gatherkit evaluations.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("indexer"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("indexer"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("indexer"))
//	engine, err := gather.NewEngine(cfg, gather.WithMetrics(metrics), gather.WithTracing())
//
// Each evaluation is tracked by an EvaluationContext which opens a span,
// and records the evaluation counters when it ends.
package observability
