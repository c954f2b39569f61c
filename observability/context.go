package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Evaluation statuses.
const (
	StatusOK           = "ok"
	StatusShortCircuit = "short_circuit"
	StatusError        = "error"
)

// EvaluationContext tracks one evaluation for tracing and metrics.
type EvaluationContext struct {
	EvalID    string
	Mode      string
	Stages    int
	StartTime time.Time
	Metrics   *Metrics
	Tracing   bool
}

// NewEvaluationContext creates a new evaluation context.
// If metrics is nil, metric recording is skipped.
func NewEvaluationContext(evalID, mode string, stages int, metrics *Metrics, tracing bool) *EvaluationContext {
	return &EvaluationContext{
		EvalID:    evalID,
		Mode:      mode,
		Stages:    stages,
		StartTime: time.Now(),
		Metrics:   metrics,
		Tracing:   tracing,
	}
}

type evaluationContextKey struct{}

// WithEvaluationContext stores an EvaluationContext in the context.
func WithEvaluationContext(ctx context.Context, ec *EvaluationContext) context.Context {
	return context.WithValue(ctx, evaluationContextKey{}, ec)
}

// EvaluationContextFromContext retrieves the EvaluationContext from context, or nil.
func EvaluationContextFromContext(ctx context.Context) *EvaluationContext {
	if ec, ok := ctx.Value(evaluationContextKey{}).(*EvaluationContext); ok {
		return ec
	}
	return nil
}

// Start opens the evaluation span when tracing is enabled. The returned
// span is a no-op otherwise.
func (ec *EvaluationContext) Start(ctx context.Context) (context.Context, trace.Span) {
	ctx = WithEvaluationContext(ctx, ec)
	if !ec.Tracing {
		return ctx, trace.SpanFromContext(context.Background())
	}
	ctx, span := StartSpan(ctx, SpanEvaluate)
	span.SetAttributes(
		attribute.String(AttrEvalID, ec.EvalID),
		attribute.String(AttrMode, ec.Mode),
		attribute.Int(AttrStages, ec.Stages),
	)
	return ctx, span
}

// StartLeaf opens a leaf span under the evaluation stored in ctx. Without
// an evaluation in ctx, or with tracing off, the span is a no-op.
func StartLeaf(ctx context.Context) (context.Context, trace.Span) {
	ec := EvaluationContextFromContext(ctx)
	if ec == nil || !ec.Tracing {
		return ctx, trace.SpanFromContext(context.Background())
	}
	ctx, span := StartSpan(ctx, SpanLeaf)
	span.SetAttributes(attribute.String(AttrEvalID, ec.EvalID))
	return ctx, span
}

// End closes the span and records the evaluation metrics.
func (ec *EvaluationContext) End(ctx context.Context, span trace.Span, status string, leaves int, err error) {
	duration := time.Since(ec.StartTime)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int(AttrLeaves, leaves),
		attribute.Bool(AttrShortCircuit, status == StatusShortCircuit),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if ec.Metrics != nil {
		ec.Metrics.RecordEvaluation(ctx, ec.Mode, status, duration)
		ec.Metrics.RecordTasks(ctx, ec.Mode, leaves)
		if status == StatusShortCircuit {
			ec.Metrics.RecordShortCircuit(ctx, ec.Mode)
		}
	}
}

// Duration returns the elapsed time since the evaluation started.
func (ec *EvaluationContext) Duration() time.Duration {
	return time.Since(ec.StartTime)
}
