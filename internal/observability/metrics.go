package observability

import (
	"context"
	"fmt"
	"time"

	"resumescore/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the service instruments. The zero value records nothing,
// so callers never need to check whether observability is enabled.
type Metrics struct {
	DocumentsAnalyzed metric.Int64Counter
	AnalysisDuration  metric.Float64Histogram
	OverallScore      metric.Int64Histogram
	ATSScore          metric.Int64Histogram

	TaxonomyReloads metric.Int64Counter
	RateLimitHits   metric.Int64Counter
	QueueMessages   metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.DocumentsAnalyzed, err = meter.Int64Counter(
		"resumescore_documents_analyzed_total",
		metric.WithDescription("Documents analyzed, by surface and validity"),
	); err != nil {
		return nil, fmt.Errorf("failed to create documents analyzed metric: %w", err)
	}

	if m.AnalysisDuration, err = meter.Float64Histogram(
		"resumescore_analysis_duration_seconds",
		metric.WithDescription("Time spent analyzing one document"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analysis duration metric: %w", err)
	}

	scoreBuckets := metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100)
	if m.OverallScore, err = meter.Int64Histogram(
		"resumescore_overall_score",
		metric.WithDescription("Overall score of accepted documents"),
		scoreBuckets,
	); err != nil {
		return nil, fmt.Errorf("failed to create overall score metric: %w", err)
	}

	if m.ATSScore, err = meter.Int64Histogram(
		"resumescore_ats_score",
		metric.WithDescription("ATS compatibility of accepted documents"),
		scoreBuckets,
	); err != nil {
		return nil, fmt.Errorf("failed to create ATS score metric: %w", err)
	}

	if m.TaxonomyReloads, err = meter.Int64Counter(
		"resumescore_taxonomy_reloads_total",
		metric.WithDescription("Taxonomy reload attempts"),
	); err != nil {
		return nil, fmt.Errorf("failed to create taxonomy reload metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"resumescore_rate_limit_hits_total",
		metric.WithDescription("Requests rejected by the rate limiter"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	if m.QueueMessages, err = meter.Int64Counter(
		"resumescore_queue_messages_total",
		metric.WithDescription("Queue messages processed, by outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create queue messages metric: %w", err)
	}

	return m, nil
}

// RecordAnalysis records one finished analysis.
func (m *Metrics) RecordAnalysis(ctx context.Context, surface string, result types.AnalysisResult, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("surface", surface),
		attribute.Bool("valid", result.IsValidDocument),
	)
	if m.DocumentsAnalyzed != nil {
		m.DocumentsAnalyzed.Add(ctx, 1, attrs)
	}
	if m.AnalysisDuration != nil {
		m.AnalysisDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
	if !result.IsValidDocument {
		return
	}
	if m.OverallScore != nil {
		m.OverallScore.Record(ctx, int64(result.OverallScore), metric.WithAttributes(attribute.String("surface", surface)))
	}
	if m.ATSScore != nil {
		m.ATSScore.Record(ctx, int64(result.ATSCompatibility), metric.WithAttributes(attribute.String("surface", surface)))
	}
}

// RecordTaxonomyReload records a reload attempt.
func (m *Metrics) RecordTaxonomyReload(ctx context.Context, success bool) {
	if m.TaxonomyReloads != nil {
		m.TaxonomyReloads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	}
}

// RecordRateLimitHit records a throttled request.
func (m *Metrics) RecordRateLimitHit(ctx context.Context, keyType string) {
	if m.RateLimitHits != nil {
		m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", keyType)))
	}
}

// RecordQueueMessage records one consumed message and its outcome.
func (m *Metrics) RecordQueueMessage(ctx context.Context, status string) {
	if m.QueueMessages != nil {
		m.QueueMessages.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

// TrackAnalysis runs fn inside a span and records its metrics.
func (om *ObservabilityManager) TrackAnalysis(ctx context.Context, surface string, fn func(context.Context) (types.AnalysisResult, error)) (types.AnalysisResult, error) {
	ctx, span := om.Tracer("resumescore.analysis").Start(ctx, "analysis."+surface)
	defer span.End()

	start := time.Now()
	result, err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	span.SetAttributes(
		attribute.Bool("resume.valid", result.IsValidDocument),
		attribute.Int("resume.overall_score", result.OverallScore),
		attribute.Int("resume.present_keywords", len(result.PresentKeywords)),
	)
	om.metrics.RecordAnalysis(ctx, surface, result, elapsed)
	return result, nil
}
