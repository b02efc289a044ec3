package processor

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "card-gateway/internal/domain/processor"
	"card-gateway/internal/domain/ruleengine"
)

// SandboxClient ルールエンジン経由でシミュレーテッドプロセッサーを呼び出すクライアント
// 本番ステージ外のサンドボックス有効マーチャントに対してLiveClientの代わりに使われる
type SandboxClient struct {
	ruleEngine   ruleengine.Client
	functionName string
	tracer       trace.Tracer
}

// NewSandboxClient 新しいSandboxClientを作成
func NewSandboxClient(ruleEngine ruleengine.Client, functionName string) *SandboxClient {
	return &SandboxClient{
		ruleEngine:   ruleEngine,
		functionName: functionName,
		tracer:       otel.Tracer("processor-sandbox-client"),
	}
}

// sandboxPayload シミュレーテッドプロセッサーへの呼び出しペイロード
type sandboxPayload struct {
	Operation string          `json:"operation"`
	Request   *domain.Request `json:"request"`
}

// Send シミュレーテッドプロセッサーへ操作を委譲する
func (c *SandboxClient) Send(ctx context.Context, op domain.Operation, req *domain.Request) (*domain.Response, error) {
	ctx, span := c.tracer.Start(ctx, "SandboxClient.Send")
	defer span.End()

	span.SetAttributes(
		attribute.String("processor.operation", op.String()),
		attribute.String("processor.sandbox_function", c.functionName),
	)

	payload := &sandboxPayload{
		Operation: op.String(),
		Request:   req,
	}

	var resp domain.Response
	if err := c.ruleEngine.Invoke(ctx, c.functionName, payload, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("sandbox processor invocation failed: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "sandbox processor accepted")
	return &resp, nil
}
