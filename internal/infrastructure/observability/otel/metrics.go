package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 課金試行数
	ChargeCount metric.Int64Counter

	// 拒否されたトランザクション数
	DeclineCount metric.Int64Counter

	// アンチフラウドによる停止数
	FraudBlockCount metric.Int64Counter

	// プロセッサー呼び出しのレイテンシ
	ProcessorLatency metric.Float64Histogram

	// 復旧レコードの書き込み数
	RecoveryRecordCount metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンスタイム
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	chargeCount, err := meter.Int64Counter(
		"charges_total",
		metric.WithDescription("Total number of charge attempts"),
	)
	if err != nil {
		return nil, err
	}

	declineCount, err := meter.Int64Counter(
		"declines_total",
		metric.WithDescription("Total number of declined transactions"),
	)
	if err != nil {
		return nil, err
	}

	fraudBlockCount, err := meter.Int64Counter(
		"fraud_blocks_total",
		metric.WithDescription("Total number of antifraud blocks"),
	)
	if err != nil {
		return nil, err
	}

	processorLatency, err := meter.Float64Histogram(
		"processor_latency_seconds",
		metric.WithDescription("Processor call latency in seconds"),
	)
	if err != nil {
		return nil, err
	}

	recoveryRecordCount, err := meter.Int64Counter(
		"recovery_records_total",
		metric.WithDescription("Total number of recovery records written"),
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
		metric.WithDescription("HTTP response time in seconds"),
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
		ChargeCount:         chargeCount,
		DeclineCount:        declineCount,
		FraudBlockCount:     fraudBlockCount,
		ProcessorLatency:    processorLatency,
		RecoveryRecordCount: recoveryRecordCount,
		RequestCount:        requestCount,
		ResponseTime:        responseTime,
		ErrorCount:          errorCount,
	}, nil
}

// RecordCharge 課金試行を記録
func (m *Metrics) RecordCharge(ctx context.Context, transactionType, currency string) {
	m.ChargeCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("transaction_type", transactionType),
			attribute.String("currency", currency),
		),
	)
}

// RecordDecline 拒否を記録
func (m *Metrics) RecordDecline(ctx context.Context, transactionType, responseCode string) {
	m.DeclineCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("transaction_type", transactionType),
			attribute.String("response_code", responseCode),
		),
	)
}

// RecordFraudBlock アンチフラウドによる停止を記録
func (m *Metrics) RecordFraudBlock(ctx context.Context, merchantID string) {
	m.FraudBlockCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("merchant_id", merchantID),
		),
	)
}

// RecordProcessorLatency プロセッサー呼び出しのレイテンシを記録
func (m *Metrics) RecordProcessorLatency(ctx context.Context, operation string, seconds float64) {
	m.ProcessorLatency.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("operation", operation),
		),
	)
}

// RecordRecoveryRecord 復旧レコードの書き込みを記録
func (m *Metrics) RecordRecoveryRecord(ctx context.Context, operation string) {
	m.RecoveryRecordCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
		),
	)
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

// RecordResponseTime レスポンスタイムを記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, seconds float64) {
	m.ResponseTime.Record(ctx, seconds,
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
