package void

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"card-gateway/internal/domain/amount"
	"card-gateway/internal/domain/merchant"
	"card-gateway/internal/domain/processor"
	"card-gateway/internal/domain/service"
	"card-gateway/internal/domain/transaction"
	otelinfra "card-gateway/internal/infrastructure/observability/otel"
)

// 拒否記録に使うフォールバックのレスポンスコード
const declineCodeError = "ERROR"

// VoidApplicationService 取消（全額・一部）のオーケストレーター
// 部分取消の残返金額はPartialVoidLedgerで直列化して検証する
type VoidApplicationService struct {
	merchantRepo    merchant.MerchantRepository
	transactionRepo transaction.TransactionRepository
	ledger          *service.PartialVoidLedger
	txManager       transaction.TransactionManager
	liveClient      processor.Client
	sandboxClient   processor.Client
	sandboxEligible bool
	logger          *otelinfra.Logger
	metrics         *otelinfra.Metrics
	tracer          trace.Tracer
}

// NewVoidApplicationService 新しいVoidApplicationServiceを作成
func NewVoidApplicationService(
	merchantRepo merchant.MerchantRepository,
	transactionRepo transaction.TransactionRepository,
	ledger *service.PartialVoidLedger,
	txManager transaction.TransactionManager,
	liveClient processor.Client,
	sandboxClient processor.Client,
	sandboxEligible bool,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *VoidApplicationService {
	return &VoidApplicationService{
		merchantRepo:    merchantRepo,
		transactionRepo: transactionRepo,
		ledger:          ledger,
		txManager:       txManager,
		liveClient:      liveClient,
		sandboxClient:   sandboxClient,
		sandboxEligible: sandboxEligible,
		logger:          logger,
		metrics:         metrics,
		tracer:          otel.Tracer("void-service"),
	}
}

// Void チケット番号で特定した売上を取消す
func (s *VoidApplicationService) Void(ctx context.Context, req *VoidRequest) (*VoidResponse, error) {
	ctx, span := s.tracer.Start(ctx, "VoidApplicationService.Void")
	defer span.End()

	span.SetAttributes(
		attribute.String("transaction_id", req.TransactionID),
		attribute.String("ticket_number", req.TicketNumber),
	)

	s.logger.Info(ctx, "Processing void", map[string]interface{}{
		"transaction_id": req.TransactionID,
		"ticket_number":  req.TicketNumber,
		"partial":        req.Amount != nil,
	})

	sale, err := s.transactionRepo.FindByTicketNumber(ctx, req.TicketNumber)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	// 同一売上への同時部分取消は売上ID単位で直列化する
	unlock := s.ledger.Lock(sale.TransactionID())
	defer unlock()

	check, err := s.ledger.Check(req.Amount, sale)
	if err != nil {
		// ポリシー違反も監査のためDECLINEDとして記録する
		return nil, s.recordDecline(ctx, span, req, sale, requestedOrApproved(req.Amount, sale), err)
	}

	m, err := s.merchantRepo.FindByPublicID(ctx, req.MerchantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	procReq := &processor.Request{
		TransactionReference: sale.TransactionReference(),
		MerchantID:           m.PublicID(),
		ProcessorID:          sale.ProcessorID(),
		TicketNumber:         sale.TicketNumber(),
		Currency:             sale.Currency(),
		Amount: amount.WireAmount{
			IVA:          amount.FormatWire(0),
			SubtotalIVA:  amount.FormatWire(0),
			SubtotalIVA0: amount.FormatWire(check.EffectiveAmount),
			TotalAmount:  amount.FormatWire(check.EffectiveAmount),
		},
	}

	resp, err := s.selectClient(m).Send(ctx, processor.OperationVoid, procReq)
	if err != nil {
		return nil, s.recordDecline(ctx, span, req, sale, check.EffectiveAmount, err)
	}
	if resp.TicketNumber == "" {
		return nil, s.recordDecline(ctx, span, req, sale, check.EffectiveAmount, processor.ErrEmptyTicketNumber)
	}

	voidTx, err := transaction.NewTransaction(
		req.TransactionID,
		sale.TransactionReference(),
		req.MerchantID,
		sale.TokenID(),
		sale.Currency(),
		check.EffectiveAmount,
		transaction.TransactionStatusApproval,
		transaction.TransactionTypeVoid,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	voidTx.SetTicketNumber(resp.TicketNumber)
	voidTx.SetSaleTicketNumber(sale.TicketNumber())
	voidTx.SetApprovedAmount(check.EffectiveAmount)
	voidTx.SetProcessor(sale.ProcessorID(), resp.TransactionDetails.ProcessorBankName)
	voidTx.SetResponse(resp.ResponseCode, resp.ResponseText)
	voidTx.SetCardInfo(sale.Bin(), sale.LastFour(), sale.CardBrand())

	// 取消記録と売上側の残返金額更新は同一DBトランザクションで行う
	err = s.txManager.WithTransaction(ctx, func(_ *sql.Tx) error {
		if err := s.createTransaction(ctx, voidTx); err != nil {
			return fmt.Errorf("failed to save void transaction: %w", err)
		}
		if check.LedgerUpdate {
			if err := s.transactionRepo.UpdatePendingAmount(ctx, sale.TransactionID(), check.NewPendingAmount); err != nil {
				return fmt.Errorf("failed to update pending amount: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	s.metrics.RecordCharge(ctx, transaction.TransactionTypeVoid.String(), sale.Currency())
	span.SetAttributes(
		attribute.String("ticket_number", resp.TicketNumber),
		attribute.Bool("partial", check.Partial),
	)
	span.SetStatus(otelcodes.Ok, "void approved")

	return &VoidResponse{
		TransactionID: req.TransactionID,
		TicketNumber:  resp.TicketNumber,
		ResponseCode:  resp.ResponseCode,
		ResponseText:  resp.ResponseText,
		VoidedAmount:  check.EffectiveAmount,
		PendingAmount: check.NewPendingAmount,
		Partial:       check.Partial,
		Status:        voidTx.Status().String(),
	}, nil
}

// recordDecline 失敗をDECLINEDのVOIDとして記録してから元エラーを返す
func (s *VoidApplicationService) recordDecline(
	ctx context.Context,
	span trace.Span,
	req *VoidRequest,
	sale *transaction.Transaction,
	voidAmount float64,
	cause error,
) error {
	span.RecordError(cause)
	span.SetStatus(otelcodes.Error, cause.Error())

	code := declineCodeError
	text := cause.Error()
	if procErr, ok := processor.AsProcessorError(cause); ok {
		code = procErr.Code
		text = procErr.Text
	}

	tx, err := transaction.NewTransaction(
		req.TransactionID,
		sale.TransactionReference(),
		req.MerchantID,
		sale.TokenID(),
		sale.Currency(),
		voidAmount,
		transaction.TransactionStatusDeclined,
		transaction.TransactionTypeVoid,
	)
	if err != nil {
		return fmt.Errorf("failed to build declined void (cause: %v): %w", cause, err)
	}
	tx.SetSaleTicketNumber(sale.TicketNumber())
	tx.SetResponse(code, text)
	tx.SetCardInfo(sale.Bin(), sale.LastFour(), sale.CardBrand())

	if err := s.createTransaction(ctx, tx); err != nil {
		return fmt.Errorf("failed to record declined void (cause: %v): %w", cause, err)
	}

	s.metrics.RecordDecline(ctx, transaction.TransactionTypeVoid.String(), code)
	s.logger.Warn(ctx, "Void declined", map[string]interface{}{
		"transaction_id": req.TransactionID,
		"ticket_number":  req.TicketNumber,
		"response_code":  code,
	})

	return cause
}

// createTransaction 条件付き書き込み。重複は冪等成功として扱う
func (s *VoidApplicationService) createTransaction(ctx context.Context, tx *transaction.Transaction) error {
	err := s.transactionRepo.Create(ctx, tx)
	if errors.Is(err, transaction.ErrDuplicateTransactionID) {
		s.logger.Info(ctx, "Void already recorded", map[string]interface{}{
			"transaction_id": tx.TransactionID(),
		})
		return nil
	}
	return err
}

// selectClient マーチャント単位でライブ・サンドボックスのクライアントを選ぶ
func (s *VoidApplicationService) selectClient(m *merchant.Merchant) processor.Client {
	if m.SandboxEnabled() && s.sandboxEligible {
		return s.sandboxClient
	}
	return s.liveClient
}

// requestedOrApproved 要求額があればその丸め値、なければ承認金額を返す
func requestedOrApproved(requested *float64, sale *transaction.Transaction) float64 {
	if requested != nil {
		return amount.Round2(*requested)
	}
	return sale.ApprovedAmount()
}
