package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewMetrics(t *testing.T) {
	// Noopメータープロバイダーを使用
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)
	assert.NotNil(t, metrics)

	assert.NotNil(t, metrics.ChargeCount)
	assert.NotNil(t, metrics.DeclineCount)
	assert.NotNil(t, metrics.FraudBlockCount)
	assert.NotNil(t, metrics.ProcessorLatency)
	assert.NotNil(t, metrics.RecoveryRecordCount)
	assert.NotNil(t, metrics.RequestCount)
	assert.NotNil(t, metrics.ErrorCount)
}

func TestMetrics_RecordCharge(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// 課金試行を記録
	metrics.RecordCharge(ctx, "SALE", "USD")
	metrics.RecordCharge(ctx, "DEFFERED", "USD")
	metrics.RecordCharge(ctx, "PREAUTH", "COP")

	// エラーが発生しないことを確認
}

func TestMetrics_RecordDecline(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// 拒否を記録
	metrics.RecordDecline(ctx, "SALE", "228")
	metrics.RecordDecline(ctx, "VOID", "211")

	// エラーが発生しないことを確認
}

func TestMetrics_RecordFraudBlock(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// アンチフラウドによる停止を記録
	metrics.RecordFraudBlock(ctx, "merchant-1")

	// エラーが発生しないことを確認
}

func TestMetrics_RecordProcessorLatency(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// プロセッサー呼び出しのレイテンシを記録
	metrics.RecordProcessorLatency(ctx, "CHARGE", 0.123)
	metrics.RecordProcessorLatency(ctx, "VOID", 0.05)

	// エラーが発生しないことを確認
}

func TestMetrics_RecordRecoveryRecord(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// 復旧レコードの書き込みを記録
	metrics.RecordRecoveryRecord(ctx, "CHARGE")

	// エラーが発生しないことを確認
}

func TestMetrics_RecordRequest(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// リクエストを記録
	metrics.RecordRequest(ctx, "POST", "/v1/charges")

	// エラーが発生しないことを確認
}

func TestMetrics_RecordError(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// エラーを記録
	metrics.RecordError(ctx, "processor_error")
	metrics.RecordError(ctx, "validation_error")

	// エラーが発生しないことを確認
}

func TestMetrics_MultipleCalls(t *testing.T) {
	mp := noop.NewMeterProvider()
	otel.SetMeterProvider(mp)

	metrics, err := NewMetrics("test-meter")
	require.NoError(t, err)

	ctx := context.Background()

	// 複数回メトリクスを記録
	for i := 0; i < 10; i++ {
		metrics.RecordCharge(ctx, "SALE", "USD")
		metrics.RecordProcessorLatency(ctx, "CHARGE", 0.1)
		metrics.RecordRequest(ctx, "POST", "/v1/charges")
	}

	// エラーが発生しないことを確認
}
