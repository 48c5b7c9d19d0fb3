package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 決済開始数
	PaymentInitiatedCount metric.Int64Counter

	// 終端結果数（種別ラベル付き）
	OutcomeCount metric.Int64Counter

	// ステータスポーリングの試行数
	PollAttemptCount metric.Int64Counter

	// 照合にかかった時間
	ReconcileDuration metric.Float64Histogram

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	paymentInitiatedCount, err := meter.Int64Counter(
		"payments_initiated_total",
		metric.WithDescription("Total number of payment initiations"),
	)
	if err != nil {
		return nil, err
	}

	outcomeCount, err := meter.Int64Counter(
		"payment_outcomes_total",
		metric.WithDescription("Total number of terminal payment outcomes"),
	)
	if err != nil {
		return nil, err
	}

	pollAttemptCount, err := meter.Int64Counter(
		"status_poll_attempts_total",
		metric.WithDescription("Total number of payment status poll attempts"),
	)
	if err != nil {
		return nil, err
	}

	reconcileDuration, err := meter.Float64Histogram(
		"reconcile_duration_seconds",
		metric.WithDescription("Time spent reconciling a payment outcome"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		PaymentInitiatedCount: paymentInitiatedCount,
		OutcomeCount:          outcomeCount,
		PollAttemptCount:      pollAttemptCount,
		ReconcileDuration:     reconcileDuration,
		RequestCount:          requestCount,
		ResponseTime:          responseTime,
		ErrorCount:            errorCount,
	}, nil
}

// RecordPaymentInitiated 決済開始を記録
func (m *Metrics) RecordPaymentInitiated(ctx context.Context, sellerID string) {
	m.PaymentInitiatedCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("seller_id", sellerID),
		),
	)
}

// RecordOutcome 終端結果を記録
func (m *Metrics) RecordOutcome(ctx context.Context, kind string) {
	m.OutcomeCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
		),
	)
}

// RecordPollAttempt ステータスポーリングの試行を記録
func (m *Metrics) RecordPollAttempt(ctx context.Context, attempt int) {
	m.PollAttemptCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.Int("attempt", attempt),
		),
	)
}

// RecordReconcileDuration 照合時間を記録
func (m *Metrics) RecordReconcileDuration(ctx context.Context, seconds float64) {
	m.ReconcileDuration.Record(ctx, seconds)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
