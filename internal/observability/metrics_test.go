package observability

import (
	"context"
	"testing"
	"time"

	"hirescore/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetricsRecording(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordStage(ctx, "scoring", 20*time.Millisecond, "")
	m.RecordStage(ctx, "rubric", time.Millisecond, "WeightSumMismatch")
	m.RecordEvaluation(ctx, OutcomeSuccess, 7.25)
	m.RecordEvaluation(ctx, OutcomeFailure, 0)
	m.RecordTokens(ctx, "extractResume", 100, 40)
	m.RecordRateLimitHit(ctx, "ip")
	m.RecordCertReload(ctx, true)
	m.RecordCertReload(ctx, false)

	got := collect(t, reader)

	assert.Equal(t, int64(2), sumOf(t, got["hirescore_evaluations_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["hirescore_stage_errors_total"]))
	assert.Equal(t, int64(140), sumOf(t, got["hirescore_extraction_tokens_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["hirescore_rate_limit_hits_total"]))
	assert.Equal(t, int64(2), sumOf(t, got["hirescore_cert_reloads_total"]))

	scores, ok := got["hirescore_normalized_score"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, scores.DataPoints, 1)
	assert.Equal(t, uint64(1), scores.DataPoints[0].Count)
	assert.Equal(t, 7.25, scores.DataPoints[0].Sum)

	durations, ok := got["hirescore_stage_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, durations.DataPoints, 2)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	m.RecordStage(ctx, "scoring", time.Second, "EmptyResume")
	m.RecordEvaluation(ctx, OutcomeSuccess, 5)
	m.RecordTokens(ctx, "extractJob", 1, 1)
	m.RecordRateLimitHit(ctx, "ip")
	m.RecordCertReload(ctx, true)
}

func TestDisabledManager(t *testing.T) {
	om, err := NewManager(config.ObservabilityConfig{Enabled: false}, "1.0.0", nil)
	require.NoError(t, err)

	assert.Nil(t, om.Metrics())
	assert.NotNil(t, om.Tracer("test"))
	assert.NoError(t, om.Shutdown(context.Background()))

	handler := om.HTTPMiddleware()(nil)
	assert.Nil(t, handler)
}
