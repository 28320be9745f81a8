package restclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewOtelMetrics(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	m, err := newOtelMetrics(mp.Meter("test"))
	require.NoError(t, err)
	assert.NotNil(t, m.requestDuration)
	assert.NotNil(t, m.activeRequests)
	assert.NotNil(t, m.requestErrors)
}

func TestOtelMetrics_RecordRequestDuration(t *testing.T) {
	tests := []struct {
		name  string
		attrs []attribute.KeyValue
	}{
		{
			name: "given attrs, then records metric",
			attrs: []attribute.KeyValue{
				attribute.String("http.request.method", "GET"),
			},
		},
		{
			name:  "given no attrs, then still records metric",
			attrs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := sdkmetric.NewManualReader()
			mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
			defer mp.Shutdown(context.Background())

			m, err := newOtelMetrics(mp.Meter("test"))
			require.NoError(t, err)

			ctx := context.Background()
			m.recordRequestDuration(ctx, 100*time.Millisecond, tt.attrs)

			var rm metricdata.ResourceMetrics
			require.NoError(t, reader.Collect(ctx, &rm))
			assert.NotEmpty(t, rm.ScopeMetrics)
		})
	}
}

func TestOtelMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *otelMetrics

	ctx := context.Background()
	m.recordActiveRequestStart(ctx, nil)
	m.recordActiveRequestEnd(ctx, nil)
	m.recordRequestDuration(ctx, time.Second, nil)
	m.recordError(ctx, nil)
}

func TestClient_RecordsRequestMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	client := testClient(t, server, WithMeterProvider(mp))

	_, err := client.Request("test").Get(context.Background(), "/x")
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotEmpty(t, rm.ScopeMetrics)

	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["http.client.request.duration"])
	assert.True(t, names["http.client.active_requests"])
}
