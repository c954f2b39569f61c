package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/gatherkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider should be shut down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Get(logger.ComponentObservability).Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the evaluation instruments.
type Metrics struct {
	evaluationTotal    metric.Int64Counter
	evaluationDuration metric.Float64Histogram
	evaluationTasks    metric.Int64Counter
	shortCircuitTotal  metric.Int64Counter
	inFlight           metric.Int64UpDownCounter
}

// NewMetrics creates the evaluation instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	evaluationTotal, err := meter.Int64Counter("evaluation.total",
		metric.WithDescription("Total number of gatherer evaluations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating evaluation.total counter: %w", err)
	}

	evaluationDuration, err := meter.Float64Histogram("evaluation.duration",
		metric.WithDescription("Duration of gatherer evaluations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating evaluation.duration histogram: %w", err)
	}

	evaluationTasks, err := meter.Int64Counter("evaluation.tasks",
		metric.WithDescription("Leaf tasks executed by parallel and hybrid evaluations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating evaluation.tasks counter: %w", err)
	}

	shortCircuitTotal, err := meter.Int64Counter("evaluation.short_circuit",
		metric.WithDescription("Evaluations that stopped before exhausting their source"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating evaluation.short_circuit counter: %w", err)
	}

	inFlight, err := meter.Int64UpDownCounter("map_concurrent.in_flight",
		metric.WithDescription("Concurrent mapping tasks currently running"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating map_concurrent.in_flight gauge: %w", err)
	}

	return &Metrics{
		evaluationTotal:    evaluationTotal,
		evaluationDuration: evaluationDuration,
		evaluationTasks:    evaluationTasks,
		shortCircuitTotal:  shortCircuitTotal,
		inFlight:           inFlight,
	}, nil
}

// NoopMetrics returns instruments backed by the no-op meter.
func NoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

// RecordEvaluation records a finished evaluation.
func (m *Metrics) RecordEvaluation(ctx context.Context, mode, status string, duration time.Duration) {
	m.evaluationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("status", status),
	))
	m.evaluationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("mode", mode),
	))
}

// RecordTasks adds the number of leaf tasks an evaluation ran.
func (m *Metrics) RecordTasks(ctx context.Context, mode string, n int) {
	if n <= 0 {
		return
	}
	m.evaluationTasks.Add(ctx, int64(n), metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordShortCircuit counts an evaluation that stopped early.
func (m *Metrics) RecordShortCircuit(ctx context.Context, mode string) {
	m.shortCircuitTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

// AddInFlight moves the in-flight mapping task gauge by delta.
func (m *Metrics) AddInFlight(ctx context.Context, delta int64) {
	m.inFlight.Add(ctx, delta)
}
