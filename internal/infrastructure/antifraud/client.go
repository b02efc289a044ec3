package antifraud

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

	domain "card-gateway/internal/domain/antifraud"
	"card-gateway/internal/infrastructure/config"
)

// HTTPClient アンチフラウドサービスのHTTPクライアント
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	tracer     trace.Tracer
}

// NewHTTPClient 新しいHTTPClientを作成
func NewHTTPClient(cfg *config.AntifraudConfig) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		tracer:     otel.Tracer("antifraud-client"),
	}
}

// orderRequestBody リスク注文作成のリクエストボディ
type orderRequestBody struct {
	MerchantID    string  `json:"merchant_id"`
	UserID        string  `json:"user_id"`
	SecureService string  `json:"secure_service"`
	Currency      string  `json:"currency_code"`
	TotalAmount   float64 `json:"total_amount"`
	CardBin       string  `json:"card_bin"`
	CardLastFour  string  `json:"card_last4"`
}

// orderResponseBody リスク注文作成のレスポンスボディ
type orderResponseBody struct {
	OrderID string `json:"order_id"`
}

// workflowResponseBody ワークフロー評価結果のレスポンスボディ
type workflowResponseBody struct {
	Scores struct {
		PaymentAbuse struct {
			Score float64 `json:"score"`
		} `json:"payment_abuse"`
	} `json:"scores"`
	Workflows []struct {
		Name    string `json:"name"`
		Status  string `json:"status"`
		History []struct {
			App    string `json:"app"`
			Name   string `json:"name"`
			Config struct {
				DecisionID string `json:"decision_id"`
			} `json:"config"`
		} `json:"history"`
	} `json:"workflows"`
}

// decisionResponseBody 判断詳細のレスポンスボディ
type decisionResponseBody struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// CreateOrder リスク注文を作成
func (c *HTTPClient) CreateOrder(ctx context.Context, req *domain.OrderRequest) (*domain.Order, error) {
	ctx, span := c.tracer.Start(ctx, "AntifraudClient.CreateOrder")
	defer span.End()

	span.SetAttributes(
		attribute.String("antifraud.merchant_id", req.MerchantID),
		attribute.String("antifraud.secure_service", req.SecureService),
	)

	body := &orderRequestBody{
		MerchantID:    req.MerchantID,
		UserID:        req.SecureID,
		SecureService: req.SecureService,
		Currency:      req.Currency,
		TotalAmount:   req.TotalAmount,
		CardBin:       req.CardBin,
		CardLastFour:  req.CardLastFour,
	}

	var resp orderResponseBody
	if err := c.post(ctx, "/v1/orders", body, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to create antifraud order: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "order created")
	return &domain.Order{OrderID: resp.OrderID}, nil
}

// GetWorkflowStatus ワークフロー評価結果を取得
func (c *HTTPClient) GetWorkflowStatus(ctx context.Context, orderID string) (*domain.WorkflowResult, error) {
	ctx, span := c.tracer.Start(ctx, "AntifraudClient.GetWorkflowStatus")
	defer span.End()

	span.SetAttributes(attribute.String("antifraud.order_id", orderID))

	var resp workflowResponseBody
	if err := c.get(ctx, "/v1/orders/"+url.PathEscape(orderID)+"/workflows", &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to get workflow status: %w", err)
	}

	result := &domain.WorkflowResult{
		Scores: domain.Scores{PaymentAbuse: resp.Scores.PaymentAbuse.Score},
	}
	for _, wf := range resp.Workflows {
		workflow := domain.Workflow{Name: wf.Name, Status: wf.Status}
		for _, h := range wf.History {
			workflow.History = append(workflow.History, domain.HistoryEntry{
				App:        h.App,
				Name:       h.Name,
				DecisionID: h.Config.DecisionID,
			})
		}
		result.Workflows = append(result.Workflows, workflow)
	}

	span.SetStatus(otelcodes.Ok, "workflow status fetched")
	return result, nil
}

// GetDecision 判断の詳細を取得
func (c *HTTPClient) GetDecision(ctx context.Context, decisionID string) (*domain.Decision, error) {
	ctx, span := c.tracer.Start(ctx, "AntifraudClient.GetDecision")
	defer span.End()

	span.SetAttributes(attribute.String("antifraud.decision_id", decisionID))

	var resp decisionResponseBody
	if err := c.get(ctx, "/v1/decisions/"+url.PathEscape(decisionID), &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to get decision: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "decision fetched")
	return &domain.Decision{ID: resp.ID, Name: resp.Name, Category: resp.Category}, nil
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

	return c.do(req, out)
}

func (c *HTTPClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("antifraud service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
