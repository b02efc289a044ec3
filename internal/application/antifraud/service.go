package antifraud

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"card-gateway/internal/domain/antifraud"
	"card-gateway/internal/domain/merchant"
	"card-gateway/internal/domain/token"
	otelinfra "card-gateway/internal/infrastructure/observability/otel"
)

// FraudGateApplicationService 課金前のアンチフラウド評価ゲート
// ブロック判定はBlockErrorとして返し、呼び出し元のサーガを打ち切らせる
type FraudGateApplicationService struct {
	client           antifraud.Client
	defaultThreshold float64
	logger           *otelinfra.Logger
	metrics          *otelinfra.Metrics
	tracer           trace.Tracer
}

// NewFraudGateApplicationService 新しいFraudGateApplicationServiceを作成
func NewFraudGateApplicationService(
	client antifraud.Client,
	defaultThreshold float64,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *FraudGateApplicationService {
	return &FraudGateApplicationService{
		client:           client,
		defaultThreshold: defaultThreshold,
		logger:           logger,
		metrics:          metrics,
		tracer:           otel.Tracer("fraud-gate-service"),
	}
}

// Evaluate トークンの課金をアンチフラウドで評価する
// ブロックされない場合はnilを返す
func (s *FraudGateApplicationService) Evaluate(ctx context.Context, m *merchant.Merchant, tk *token.Token) error {
	ctx, span := s.tracer.Start(ctx, "FraudGateApplicationService.Evaluate")
	defer span.End()

	span.SetAttributes(
		attribute.String("merchant_id", m.PublicID()),
		attribute.String("token_id", tk.ID()),
	)

	order, err := s.client.CreateOrder(ctx, &antifraud.OrderRequest{
		MerchantID:    m.PublicID(),
		SecureID:      tk.SecureID(),
		SecureService: tk.SecureService(),
		Currency:      tk.Currency(),
		TotalAmount:   tk.TotalAmount(),
		CardBin:       tk.Bin(),
		CardLastFour:  tk.LastFour(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create risk order: %w", err)
	}

	result, err := s.client.GetWorkflowStatus(ctx, order.OrderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to evaluate risk workflows: %w", err)
	}

	threshold := s.defaultThreshold
	if m.HasFraudScoring() {
		threshold = m.FraudThreshold()
	}
	span.SetAttributes(
		attribute.Float64("antifraud.score", result.Scores.PaymentAbuse),
		attribute.Float64("antifraud.threshold", threshold),
	)

	blockErr, err := s.inspect(ctx, result, threshold)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}
	if blockErr != nil {
		s.metrics.RecordFraudBlock(ctx, m.PublicID())
		s.logger.Warn(ctx, "Charge blocked by antifraud", map[string]interface{}{
			"merchant_id": m.PublicID(),
			"token_id":    tk.ID(),
			"workflow":    blockErr.WorkflowName,
			"decision":    blockErr.DecisionName,
			"reason":      blockErr.Reason,
		})
		span.RecordError(blockErr)
		span.SetStatus(otelcodes.Error, blockErr.Error())
		return blockErr
	}

	span.SetStatus(otelcodes.Ok, "charge cleared")
	return nil
}

// inspect ワークフロー結果からブロック条件を探す。最初の該当で打ち切る
// 判断IDが1件もないのはエラーではなく「追加レビュー不要」を意味する
func (s *FraudGateApplicationService) inspect(ctx context.Context, result *antifraud.WorkflowResult, threshold float64) (*antifraud.BlockError, error) {
	for _, wf := range result.Workflows {
		if wf.Status == antifraud.WorkflowStatusFailed {
			return &antifraud.BlockError{
				WorkflowName: wf.Name,
				Reason:       "risk workflow failed",
			}, nil
		}
	}

	if result.Scores.PaymentAbuse > threshold {
		return &antifraud.BlockError{
			Reason: fmt.Sprintf("payment abuse score %.2f over threshold %.2f", result.Scores.PaymentAbuse, threshold),
		}, nil
	}

	for _, wf := range result.Workflows {
		for _, entry := range wf.History {
			if entry.App != antifraud.HistoryAppDecision || entry.DecisionID == "" {
				continue
			}

			decision, err := s.client.GetDecision(ctx, entry.DecisionID)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch risk decision %s: %w", entry.DecisionID, err)
			}

			if decision.Category == antifraud.CategoryBlock {
				return &antifraud.BlockError{
					WorkflowName: wf.Name,
					DecisionName: decision.Name,
					Reason:       "blocking risk decision",
				}, nil
			}
		}
	}

	return nil, nil
}
