package ruleengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "card-gateway/internal/domain/ruleengine"
	"card-gateway/internal/infrastructure/config"
)

// HTTPClient ルールエンジンのHTTPクライアント
// ルーティング解決と名前指定の関数呼び出し（サンドボックス委譲）の両方を担う
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	tracer     trace.Tracer
}

// NewHTTPClient 新しいHTTPClientを作成
func NewHTTPClient(cfg *config.RuleEngineConfig) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tracer:     otel.Tracer("rule-engine-client"),
	}
}

// Resolve ルーティングルールを解決
func (c *HTTPClient) Resolve(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	ctx, span := c.tracer.Start(ctx, "RuleEngineClient.Resolve")
	defer span.End()

	span.SetAttributes(
		attribute.String("ruleengine.merchant_id", req.MerchantID),
		attribute.String("ruleengine.card_bin", req.CardBin),
		attribute.String("ruleengine.transaction_type", req.TransactionType),
	)

	var resp domain.Response
	if err := c.post(ctx, "/v1/rules/resolve", req, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to resolve routing rule: %w", err)
	}

	span.SetAttributes(
		attribute.String("ruleengine.processor_public_id", resp.ProcessorPublicID),
		attribute.Bool("ruleengine.plcc_flag", resp.PLCCFlag),
	)
	span.SetStatus(otelcodes.Ok, "rule resolved")
	return &resp, nil
}

// Invoke 任意の関数を名前指定で呼び出す
func (c *HTTPClient) Invoke(ctx context.Context, functionName string, payload interface{}, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "RuleEngineClient.Invoke")
	defer span.End()

	span.SetAttributes(attribute.String("ruleengine.function_name", functionName))

	if err := c.post(ctx, "/v1/functions/"+url.PathEscape(functionName)+"/invoke", payload, out); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to invoke function %s: %w", functionName, err)
	}

	span.SetStatus(otelcodes.Ok, "function invoked")
	return nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("rule engine returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
