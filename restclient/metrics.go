package restclient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// otelMetrics holds the metric instruments for client requests.
type otelMetrics struct {
	// requestDuration measures the total request duration in seconds.
	requestDuration metric.Float64Histogram

	// activeRequests tracks the number of in-flight requests.
	activeRequests metric.Int64UpDownCounter

	// requestErrors counts transport errors.
	requestErrors metric.Int64Counter
}

// newOtelMetrics creates and registers metric instruments.
func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	m := &otelMetrics{}
	var err error

	m.requestDuration, err = meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of HTTP client requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	m.activeRequests, err = meter.Int64UpDownCounter(
		"http.client.active_requests",
		metric.WithDescription("Number of in-flight HTTP client requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.requestErrors, err = meter.Int64Counter(
		"http.client.request.errors",
		metric.WithDescription("Number of HTTP client transport errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *otelMetrics) recordActiveRequestStart(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.activeRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *otelMetrics) recordActiveRequestEnd(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.activeRequests.Add(ctx, -1, metric.WithAttributes(attrs...))
}

func (m *otelMetrics) recordRequestDuration(ctx context.Context, d time.Duration, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

func (m *otelMetrics) recordError(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
}
