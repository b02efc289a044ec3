package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "card-gateway/internal/domain/processor"
	obs "card-gateway/internal/infrastructure/observability/otel"
)

// プロセッサーの特殊レスポンスコード
const (
	// codeNoData サブスクリプション課金での「データなし」正常応答
	codeNoData = "1032"
	// codeUnresolved トランザクションIDなしで返る照会不能応答（アラート対象）
	codeUnresolved = "211"
)

// errorBody プロセッサーからの構造化エラーボディ
type errorBody struct {
	ResponseCode  string                 `json:"response_code"`
	ResponseText  string                 `json:"response_text"`
	TransactionID string                 `json:"transaction_id"`
	Details       map[string]interface{} `json:"details"`
}

// LiveClient プロセッサーへ暗号化リクエストを送信するHTTPクライアント
type LiveClient struct {
	httpClient   *http.Client
	codec        *Codec
	baseURL      string
	recoveryRepo domain.RecoveryRepository
	recoveryTTL  time.Duration
	logger       *obs.Logger
	metrics      *obs.Metrics
	tracer       trace.Tracer
}

// NewLiveClient 新しいLiveClientを作成
func NewLiveClient(
	httpClient *http.Client,
	codec *Codec,
	baseURL string,
	recoveryRepo domain.RecoveryRepository,
	recoveryTTL time.Duration,
	logger *obs.Logger,
	metrics *obs.Metrics,
) *LiveClient {
	return &LiveClient{
		httpClient:   httpClient,
		codec:        codec,
		baseURL:      strings.TrimRight(baseURL, "/"),
		recoveryRepo: recoveryRepo,
		recoveryTTL:  recoveryTTL,
		logger:       logger,
		metrics:      metrics,
		tracer:       otel.Tracer("processor-client"),
	}
}

// Send リクエストを暗号化して送信し、レスポンスを返す
func (c *LiveClient) Send(ctx context.Context, op domain.Operation, req *domain.Request) (*domain.Response, error) {
	ctx, span := c.tracer.Start(ctx, "ProcessorClient.Send")
	defer span.End()

	span.SetAttributes(
		attribute.String("processor.operation", op.String()),
		attribute.String("processor.transaction_reference", req.TransactionReference),
	)

	serialized, err := json.Marshal(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to serialize processor request: %w", err)
	}

	blob, err := c.codec.EncodeBytes(serialized)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, strings.ToLower(op.String()))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(blob))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to build processor request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/plain")

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// 構造化ボディのないネットワークエラーはそのまま伝搬する
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("processor request failed: %w", err)
	}
	defer httpResp.Body.Close()
	c.metrics.RecordProcessorLatency(ctx, op.String(), time.Since(start).Seconds())

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to read processor response: %w", err)
	}

	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		var resp domain.Response
		if err := json.Unmarshal(body, &resp); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to parse processor response: %w", err)
		}
		span.SetStatus(otelcodes.Ok, "processor accepted")
		return &resp, nil
	}

	var structured errorBody
	if err := json.Unmarshal(body, &structured); err != nil || structured.ResponseCode == "" {
		// 構造化されていないエラーボディはネットワークエラー相当として扱う
		unexpected := fmt.Errorf("processor returned status %d: %s", httpResp.StatusCode, string(body))
		span.RecordError(unexpected)
		span.SetStatus(otelcodes.Error, unexpected.Error())
		return nil, unexpected
	}

	return c.mapStructuredError(ctx, span, op, serialized, &structured)
}

// mapStructuredError 構造化エラーボディを応答またはエラーへ写像する
func (c *LiveClient) mapStructuredError(
	ctx context.Context,
	span trace.Span,
	op domain.Operation,
	serialized []byte,
	structured *errorBody,
) (*domain.Response, error) {
	switch {
	case structured.ResponseCode == codeNoData:
		// サブスクリプション課金の「データなし」は空の正常応答として扱う
		span.SetStatus(otelcodes.Ok, "no-data response treated as success")
		return &domain.Response{}, nil

	case structured.ResponseCode == codeUnresolved && structured.TransactionID == "":
		procErr := domain.NewProcessorError(structured.ResponseCode, structured.ResponseText, structured.Details)
		c.logger.Error(ctx, "processor returned unresolved charge", procErr, map[string]interface{}{
			"alert_channel": "payments-oncall",
			"operation":     op.String(),
			"response_code": structured.ResponseCode,
		})
		c.metrics.RecordError(ctx, "processor_unresolved")
		span.RecordError(procErr)
		span.SetStatus(otelcodes.Error, procErr.Error())
		return nil, procErr

	default:
		procErr := domain.NewProcessorError(structured.ResponseCode, structured.ResponseText, structured.Details)
		if op.IsChargeLike() {
			c.writeRecoveryRecord(ctx, op, serialized, structured)
		}
		span.RecordError(procErr)
		span.SetStatus(otelcodes.Error, procErr.Error())
		return nil, procErr
	}
}

// writeRecoveryRecord 復旧レコードをベストエフォートで書き込む
// 書き込み失敗は元エラーを隠さずログのみ残す
func (c *LiveClient) writeRecoveryRecord(ctx context.Context, op domain.Operation, serialized []byte, structured *errorBody) {
	id := structured.TransactionID
	if id == "" {
		id = fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.NewString())
	}

	record := &domain.RecoveryRecord{
		ID:        id,
		Operation: op,
		Request:   serialized,
		ExpiresAt: time.Now().Add(c.recoveryTTL),
	}
	if err := c.recoveryRepo.Save(ctx, record); err != nil {
		c.logger.Error(ctx, "failed to write recovery record", err, map[string]interface{}{
			"recovery_id": id,
			"operation":   op.String(),
		})
		return
	}
	c.metrics.RecordRecoveryRecord(ctx, op.String())
}
