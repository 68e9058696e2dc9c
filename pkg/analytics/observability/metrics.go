package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records analytics bus metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPublish records a publish call and whether it was queued or
	// delivered.
	RecordPublish(ctx context.Context, eventType string, queued bool)

	// RecordDelivery records one subscriber invocation with its duration and
	// error status.
	RecordDelivery(ctx context.Context, eventType string, duration time.Duration, err error)

	// RecordOverwrite records a pending entry being overwritten before flush.
	RecordOverwrite(ctx context.Context, eventType string)

	// RecordFlush records a gate-open flush with its size and duration.
	RecordFlush(ctx context.Context, events int, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	publishes        metric.Int64Counter
	deliveries       metric.Int64Counter
	deliveryLatency  metric.Float64Histogram
	subscriberErrors metric.Int64Counter
	overwrites       metric.Int64Counter
	flushes          metric.Int64Counter
	flushSize        metric.Int64Histogram
	flushLatency     metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("hydrogen/analytics")

	publishes, err := meter.Int64Counter("analytics.publishes",
		metric.WithDescription("Number of publish calls"),
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := meter.Int64Counter("analytics.deliveries",
		metric.WithDescription("Number of subscriber invocations"),
	)
	if err != nil {
		return nil, err
	}

	deliveryLatency, err := meter.Float64Histogram("analytics.delivery.latency_ms",
		metric.WithDescription("Subscriber invocation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	subscriberErrors, err := meter.Int64Counter("analytics.subscriber.errors",
		metric.WithDescription("Number of subscriber errors"),
	)
	if err != nil {
		return nil, err
	}

	overwrites, err := meter.Int64Counter("analytics.pending.overwrites",
		metric.WithDescription("Number of pending entries overwritten before flush"),
	)
	if err != nil {
		return nil, err
	}

	flushes, err := meter.Int64Counter("analytics.flushes",
		metric.WithDescription("Number of gate-open flushes"),
	)
	if err != nil {
		return nil, err
	}

	flushSize, err := meter.Int64Histogram("analytics.flush.events",
		metric.WithDescription("Pending events delivered per flush"),
	)
	if err != nil {
		return nil, err
	}

	flushLatency, err := meter.Float64Histogram("analytics.flush.latency_ms",
		metric.WithDescription("Flush latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		publishes:        publishes,
		deliveries:       deliveries,
		deliveryLatency:  deliveryLatency,
		subscriberErrors: subscriberErrors,
		overwrites:       overwrites,
		flushes:          flushes,
		flushSize:        flushSize,
		flushLatency:     flushLatency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordPublish records a publish call.
func (m *otelMetrics) RecordPublish(ctx context.Context, eventType string, queued bool) {
	m.publishes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.Bool("queued", queued),
	))
}

// RecordDelivery records one subscriber invocation.
func (m *otelMetrics) RecordDelivery(ctx context.Context, eventType string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("event_type", eventType),
	}

	m.deliveries.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.deliveryLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.subscriberErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordOverwrite records a pending entry overwrite.
func (m *otelMetrics) RecordOverwrite(ctx context.Context, eventType string) {
	m.overwrites.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
	))
}

// RecordFlush records a gate-open flush.
func (m *otelMetrics) RecordFlush(ctx context.Context, events int, duration time.Duration) {
	m.flushes.Add(ctx, 1)
	m.flushSize.Record(ctx, int64(events))
	m.flushLatency.Record(ctx, float64(duration.Milliseconds()))
}
