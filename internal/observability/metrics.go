package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the hirescore instruments. A nil *Metrics records nothing.
type Metrics struct {
	Evaluations      metric.Int64Counter
	StageDuration    metric.Float64Histogram
	StageErrors      metric.Int64Counter
	NormalizedScore  metric.Float64Histogram
	ExtractionTokens metric.Int64Counter
	RateLimitHits    metric.Int64Counter
	CertReloads      metric.Int64Counter
}

// NewMetrics creates every instrument on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.Evaluations, err = meter.Int64Counter(
		"hirescore_evaluations_total",
		metric.WithDescription("Total number of evaluations by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create evaluations metric: %w", err)
	}

	m.StageDuration, err = meter.Float64Histogram(
		"hirescore_stage_duration_seconds",
		metric.WithDescription("Time spent in each pipeline stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage duration metric: %w", err)
	}

	m.StageErrors, err = meter.Int64Counter(
		"hirescore_stage_errors_total",
		metric.WithDescription("Pipeline stage failures by stage and kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage errors metric: %w", err)
	}

	m.NormalizedScore, err = meter.Float64Histogram(
		"hirescore_normalized_score",
		metric.WithDescription("Normalized 0-10 score of completed evaluations"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 4.5, 5, 6, 6.5, 7, 8, 8.5, 9, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create normalized score metric: %w", err)
	}

	m.ExtractionTokens, err = meter.Int64Counter(
		"hirescore_extraction_tokens_total",
		metric.WithDescription("Tokens used by extraction calls"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction tokens metric: %w", err)
	}

	m.RateLimitHits, err = meter.Int64Counter(
		"hirescore_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	m.CertReloads, err = meter.Int64Counter(
		"hirescore_cert_reloads_total",
		metric.WithDescription("TLS certificate reload attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cert reloads metric: %w", err)
	}

	return m, nil
}

// RecordStage records the duration of one stage and, when kind is not empty, a failure
func (m *Metrics) RecordStage(ctx context.Context, stage string, duration time.Duration, kind string) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.Bool("success", kind == ""),
	))
	if kind != "" {
		m.StageErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("kind", kind),
		))
	}
}

// RecordEvaluation counts a finished evaluation. score is only recorded on success.
func (m *Metrics) RecordEvaluation(ctx context.Context, outcome string, score float64) {
	if m == nil {
		return
	}
	m.Evaluations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome == OutcomeSuccess {
		m.NormalizedScore.Record(ctx, score)
	}
}

// RecordTokens adds the token counts of one extraction call
func (m *Metrics) RecordTokens(ctx context.Context, operation string, input, output int64) {
	if m == nil {
		return
	}
	for _, t := range []struct {
		tokenType string
		value     int64
	}{
		{"input", input},
		{"output", output},
	} {
		m.ExtractionTokens.Add(ctx, t.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", t.tokenType),
		))
	}
}

// RecordRateLimitHit counts a rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, limitType string) {
	if m == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limit_type", limitType)))
}

// RecordCertReload counts one certificate reload attempt
func (m *Metrics) RecordCertReload(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.CertReloads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// Evaluation outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
