package charge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"card-gateway/internal/domain/amount"
	"card-gateway/internal/domain/antifraud"
	"card-gateway/internal/domain/binlookup"
	"card-gateway/internal/domain/merchant"
	"card-gateway/internal/domain/processor"
	"card-gateway/internal/domain/ruleengine"
	"card-gateway/internal/domain/service"
	"card-gateway/internal/domain/token"
	"card-gateway/internal/domain/transaction"
	otelinfra "card-gateway/internal/infrastructure/observability/otel"
)

// 拒否記録に使うフォールバックのレスポンスコード
const (
	declineCodeFraud = "FRAUD"
	declineCodeError = "ERROR"
)

// FraudGate 課金前のアンチフラウド評価ゲート
type FraudGate interface {
	Evaluate(ctx context.Context, m *merchant.Merchant, tk *token.Token) error
}

// ChargeApplicationService 課金サーガのオーケストレーター
// 1回の実行につきプロセッサー呼び出しは高々1回、Transaction記録はちょうど1件
type ChargeApplicationService struct {
	merchantRepo     merchant.MerchantRepository
	tokenRepo        token.TokenRepository
	transactionRepo  transaction.TransactionRepository
	chargeRecordRepo transaction.ChargeRecordRepository
	ruleEngine       ruleengine.Client
	binLookup        binlookup.Client
	fraudGate        FraudGate
	amountResolver   *service.AmountResolver
	liveClient       processor.Client
	sandboxClient    processor.Client
	sandboxEligible  bool
	recordTTL        time.Duration
	logger           *otelinfra.Logger
	metrics          *otelinfra.Metrics
	tracer           trace.Tracer
}

// NewChargeApplicationService 新しいChargeApplicationServiceを作成
func NewChargeApplicationService(
	merchantRepo merchant.MerchantRepository,
	tokenRepo token.TokenRepository,
	transactionRepo transaction.TransactionRepository,
	chargeRecordRepo transaction.ChargeRecordRepository,
	ruleEngine ruleengine.Client,
	binLookup binlookup.Client,
	fraudGate FraudGate,
	amountResolver *service.AmountResolver,
	liveClient processor.Client,
	sandboxClient processor.Client,
	sandboxEligible bool,
	recordTTL time.Duration,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *ChargeApplicationService {
	return &ChargeApplicationService{
		merchantRepo:     merchantRepo,
		tokenRepo:        tokenRepo,
		transactionRepo:  transactionRepo,
		chargeRecordRepo: chargeRecordRepo,
		ruleEngine:       ruleEngine,
		binLookup:        binLookup,
		fraudGate:        fraudGate,
		amountResolver:   amountResolver,
		liveClient:       liveClient,
		sandboxClient:    sandboxClient,
		sandboxEligible:  sandboxEligible,
		recordTTL:        recordTTL,
		logger:           logger,
		metrics:          metrics,
		tracer:           otel.Tracer("charge-service"),
	}
}

// Charge 売上（または分割払い）を実行する
func (s *ChargeApplicationService) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	op := processor.OperationCharge
	transactionType := transaction.TransactionTypeSale
	if req.IsDeferred {
		op = processor.OperationDeferred
		transactionType = transaction.TransactionTypeDeferred
	}
	return s.process(ctx, req, op, transactionType)
}

// Preauth 与信予約を実行する。アンチフラウドゲートは通らない
func (s *ChargeApplicationService) Preauth(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	return s.process(ctx, req, processor.OperationPreauth, transaction.TransactionTypePreauth)
}

// process 課金系サーガの本体
func (s *ChargeApplicationService) process(
	ctx context.Context,
	req *ChargeRequest,
	op processor.Operation,
	transactionType transaction.TransactionType,
) (*ChargeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ChargeApplicationService."+op.String())
	defer span.End()

	span.SetAttributes(
		attribute.String("transaction_id", req.TransactionID),
		attribute.String("merchant_id", req.MerchantID),
		attribute.String("token_id", req.TokenID),
		attribute.String("currency", req.Currency),
	)

	s.logger.Info(ctx, "Processing charge", map[string]interface{}{
		"transaction_id": req.TransactionID,
		"merchant_id":    req.MerchantID,
		"operation":      op.String(),
	})

	requestAmount := &amount.Amount{
		Currency:     req.Currency,
		IVA:          req.Amount.IVA,
		SubtotalIVA:  req.Amount.SubtotalIVA,
		SubtotalIVA0: req.Amount.SubtotalIVA0,
		ICE:          req.Amount.ICE,
		ExtraTaxes:   req.Amount.ExtraTaxes,
	}

	// マーチャントとトークンの取得は独立しているため並行に走らせる
	var m *merchant.Merchant
	var tk *token.Token
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := s.merchantRepo.FindByPublicID(gctx, req.MerchantID)
		if err != nil {
			return fmt.Errorf("failed to find merchant: %w", err)
		}
		m = found
		return nil
	})
	g.Go(func() error {
		found, err := s.tokenRepo.FindByID(gctx, req.TokenID)
		if errors.Is(err, token.ErrTokenNotFound) && req.AllowMissingToken {
			// レガシー呼び出し元向けの後方互換経路
			found = token.NewPlaceholderToken(req.TokenID, req.Currency)
			err = nil
		}
		if err != nil {
			return fmt.Errorf("failed to find token: %w", err)
		}
		tk = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, s.recordDecline(ctx, span, req, transactionType, requestAmount.Total(), nil, nil, err)
	}

	chargeAmount := requestAmount
	if tk.TotalAmount() > 0 {
		tk.SetSettlementAmount(requestAmount.Total())
	}

	rule, err := s.ruleEngine.Resolve(ctx, &ruleengine.Request{
		CardBin:         tk.Bin(),
		CardBrand:       s.cardBrand(tk),
		CustomerID:      tk.SecureID(),
		MerchantID:      m.PublicID(),
		TransactionType: transactionType.String(),
		Currency:        req.Currency,
		TotalAmount:     chargeAmount.Total(),
		IsDeferred:      req.IsDeferred,
	})
	if err != nil {
		return nil, s.recordDecline(ctx, span, req, transactionType, chargeAmount.Total(), m, tk, err)
	}
	if rule.SecureServiceID != "" {
		tk.SetSecureService(rule.SecureServiceID, rule.SecureServiceName)
	}

	cardBrand := s.cardBrand(tk)
	if rule.PLCCFlag {
		// プライベートレーベルカードは発行国スコープの再ルックアップで実ブランドを引く
		info, err := s.binLookup.Lookup(ctx, tk.Bin(), s.issuingCountry(m, tk))
		if err != nil {
			return nil, s.recordDecline(ctx, span, req, transactionType, chargeAmount.Total(), m, tk, err)
		}
		cardBrand = info.Brand
		if tk.BinInfo() == nil {
			_ = tk.AttachBinInfo(token.BinInfo{
				Bank:     info.Bank,
				Brand:    info.Brand,
				Country:  info.Country,
				CardType: info.CardType,
			})
		}
	}

	if op == processor.OperationCharge && tk.HasSecureIdentity() && m.HasFraudScoring() {
		if err := s.fraudGate.Evaluate(ctx, m, tk); err != nil {
			return nil, s.recordDecline(ctx, span, req, transactionType, chargeAmount.Total(), m, tk, err)
		}
	}

	wire, err := s.amountResolver.Resolve(chargeAmount, rule.ProcessorPrivateID)
	if err != nil {
		return nil, s.recordDecline(ctx, span, req, transactionType, chargeAmount.Total(), m, tk, err)
	}

	procReq := &processor.Request{
		TransactionReference: tk.TransactionReference(),
		MerchantID:           m.PublicID(),
		ProcessorID:          rule.ProcessorPrivateID,
		TokenID:              tk.ID(),
		Currency:             req.Currency,
		Amount:               *wire,
		Months:               req.Months,
		MonthsOfGrace:        req.MonthsOfGrace,
		DeferredType:         req.DeferredType,
		CardBrand:            cardBrand,
		IsSubscription:       req.IsSubscription,
	}

	resp, err := s.selectClient(m).Send(ctx, op, procReq)
	if err != nil {
		return nil, s.recordDecline(ctx, span, req, transactionType, chargeAmount.Total(), m, tk, err)
	}

	// サブスクリプション課金の空応答（no-data）はチケットを持たない
	if resp.TicketNumber == "" && !req.IsSubscription {
		return nil, s.recordDecline(ctx, span, req, transactionType, chargeAmount.Total(), m, tk, processor.ErrEmptyTicketNumber)
	}

	tx, err := s.buildApproved(req, transactionType, chargeAmount.Total(), rule, resp, tk, cardBrand)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	record := &transaction.ChargeRecord{
		TicketNumber:  resp.TicketNumber,
		TransactionID: req.TransactionID,
		MerchantID:    m.PublicID(),
		Detail: map[string]interface{}{
			"operation":     op.String(),
			"response_code": resp.ResponseCode,
			"approval_code": resp.TransactionDetails.ApprovalCode,
			"recap":         resp.RecapNumber,
		},
		ExpiresAt: time.Now().Add(s.recordTTL),
	}

	// 監査レコードとTransactionは並行に書き、両方の成功を要求する
	pg, pctx := errgroup.WithContext(ctx)
	pg.Go(func() error {
		if err := s.chargeRecordRepo.Save(pctx, record); err != nil {
			return fmt.Errorf("failed to save charge record: %w", err)
		}
		return nil
	})
	pg.Go(func() error {
		if err := s.createTransaction(pctx, tx); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}
		return nil
	})
	if err := pg.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	s.metrics.RecordCharge(ctx, transactionType.String(), req.Currency)
	span.SetAttributes(attribute.String("ticket_number", resp.TicketNumber))
	span.SetStatus(otelcodes.Ok, "charge approved")

	return &ChargeResponse{
		TransactionID:  req.TransactionID,
		TicketNumber:   resp.TicketNumber,
		ResponseCode:   resp.ResponseCode,
		ResponseText:   resp.ResponseText,
		ApprovedAmount: tx.ApprovedAmount(),
		CardBrand:      cardBrand,
		Status:         tx.Status().String(),
	}, nil
}

// Capture チケット番号で特定した与信予約を確定する
func (s *ChargeApplicationService) Capture(ctx context.Context, req *CaptureRequest) (*ChargeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ChargeApplicationService.Capture")
	defer span.End()

	span.SetAttributes(
		attribute.String("transaction_id", req.TransactionID),
		attribute.String("ticket_number", req.TicketNumber),
	)

	sale, err := s.transactionRepo.FindByTicketNumber(ctx, req.TicketNumber)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	m, err := s.merchantRepo.FindByPublicID(ctx, req.MerchantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	captureAmount := sale.ApprovedAmount()
	if req.Amount != nil {
		captureAmount = amount.Round2(*req.Amount)
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
			SubtotalIVA0: amount.FormatWire(captureAmount),
			TotalAmount:  amount.FormatWire(captureAmount),
		},
	}

	chargeReq := &ChargeRequest{
		TransactionID: req.TransactionID,
		MerchantID:    req.MerchantID,
		TokenID:       sale.TokenID(),
		Currency:      sale.Currency(),
	}

	resp, err := s.selectClient(m).Send(ctx, processor.OperationCapture, procReq)
	if err != nil {
		return nil, s.recordDecline(ctx, span, chargeReq, transaction.TransactionTypeCapture, captureAmount, m, nil, err)
	}
	if resp.TicketNumber == "" {
		return nil, s.recordDecline(ctx, span, chargeReq, transaction.TransactionTypeCapture, captureAmount, m, nil, processor.ErrEmptyTicketNumber)
	}

	tx, err := transaction.NewTransaction(
		req.TransactionID,
		sale.TransactionReference(),
		req.MerchantID,
		sale.TokenID(),
		sale.Currency(),
		captureAmount,
		transaction.TransactionStatusApproval,
		transaction.TransactionTypeCapture,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	tx.SetTicketNumber(resp.TicketNumber)
	tx.SetSaleTicketNumber(sale.TicketNumber())
	tx.SetApprovedAmount(approvedOrFallback(resp.ApprovedAmount, captureAmount))
	tx.SetProcessor(sale.ProcessorID(), resp.TransactionDetails.ProcessorBankName)
	tx.SetResponse(resp.ResponseCode, resp.ResponseText)
	tx.SetCardInfo(sale.Bin(), sale.LastFour(), sale.CardBrand())

	if err := s.createTransaction(ctx, tx); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	s.metrics.RecordCharge(ctx, transaction.TransactionTypeCapture.String(), sale.Currency())
	span.SetStatus(otelcodes.Ok, "capture approved")

	return &ChargeResponse{
		TransactionID:  req.TransactionID,
		TicketNumber:   resp.TicketNumber,
		ResponseCode:   resp.ResponseCode,
		ResponseText:   resp.ResponseText,
		ApprovedAmount: tx.ApprovedAmount(),
		Status:         tx.Status().String(),
	}, nil
}

// recordDecline 失敗をDECLINEDのTransactionとして記録してから元エラーを返す
// 記録自体の失敗は握りつぶさず、それ自体を致命的エラーとして返す
func (s *ChargeApplicationService) recordDecline(
	ctx context.Context,
	span trace.Span,
	req *ChargeRequest,
	transactionType transaction.TransactionType,
	total float64,
	m *merchant.Merchant,
	tk *token.Token,
	cause error,
) error {
	span.RecordError(cause)
	span.SetStatus(otelcodes.Error, cause.Error())

	code, text := mapDeclineResponse(cause)

	reference := ""
	if tk != nil {
		reference = tk.TransactionReference()
	}

	tx, err := transaction.NewTransaction(
		req.TransactionID,
		reference,
		req.MerchantID,
		req.TokenID,
		req.Currency,
		total,
		transaction.TransactionStatusDeclined,
		transactionType,
	)
	if err != nil {
		return fmt.Errorf("failed to build declined transaction (cause: %v): %w", cause, err)
	}
	tx.SetResponse(code, text)
	if tk != nil {
		tx.SetCardInfo(tk.Bin(), tk.LastFour(), s.cardBrand(tk))
	}

	if err := s.createTransaction(ctx, tx); err != nil {
		return fmt.Errorf("failed to record declined transaction (cause: %v): %w", cause, err)
	}

	s.metrics.RecordDecline(ctx, transactionType.String(), code)
	s.logger.Warn(ctx, "Charge declined", map[string]interface{}{
		"transaction_id": req.TransactionID,
		"response_code":  code,
		"response_text":  text,
	})

	return cause
}

// createTransaction 条件付き書き込み。重複は冪等成功として扱う
func (s *ChargeApplicationService) createTransaction(ctx context.Context, tx *transaction.Transaction) error {
	err := s.transactionRepo.Create(ctx, tx)
	if errors.Is(err, transaction.ErrDuplicateTransactionID) {
		s.logger.Info(ctx, "Transaction already recorded", map[string]interface{}{
			"transaction_id": tx.TransactionID(),
		})
		return nil
	}
	return err
}

// buildApproved 承認レスポンスからAPPROVALのTransactionを組み立てる
func (s *ChargeApplicationService) buildApproved(
	req *ChargeRequest,
	transactionType transaction.TransactionType,
	total float64,
	rule *ruleengine.Response,
	resp *processor.Response,
	tk *token.Token,
	cardBrand string,
) (*transaction.Transaction, error) {
	tx, err := transaction.NewTransaction(
		req.TransactionID,
		tk.TransactionReference(),
		req.MerchantID,
		tk.ID(),
		req.Currency,
		total,
		transaction.TransactionStatusApproval,
		transactionType,
	)
	if err != nil {
		return nil, err
	}

	tx.SetTicketNumber(resp.TicketNumber)
	tx.SetApprovedAmount(approvedOrFallback(resp.ApprovedAmount, total))
	tx.SetProcessor(rule.ProcessorPublicID, resp.TransactionDetails.ProcessorBankName)
	tx.SetResponse(resp.ResponseCode, resp.ResponseText)
	tx.SetSecureService(tk.SecureID(), tk.SecureService())
	tx.SetCardInfo(tk.Bin(), tk.LastFour(), cardBrand)
	return tx, nil
}

// selectClient マーチャント単位でライブ・サンドボックスのクライアントを選ぶ
func (s *ChargeApplicationService) selectClient(m *merchant.Merchant) processor.Client {
	if m.SandboxEnabled() && s.sandboxEligible {
		return s.sandboxClient
	}
	return s.liveClient
}

// cardBrand BIN情報があればそのブランドを返す
func (s *ChargeApplicationService) cardBrand(tk *token.Token) string {
	if info := tk.BinInfo(); info != nil {
		return info.Brand
	}
	return ""
}

// issuingCountry PLCC再ルックアップのスコープとなる発行国を返す
func (s *ChargeApplicationService) issuingCountry(m *merchant.Merchant, tk *token.Token) string {
	if info := tk.BinInfo(); info != nil && info.Country != "" {
		return info.Country
	}
	return m.Country()
}

// mapDeclineResponse 失敗原因をDECLINED記録用のコード・テキストへ写像する
func mapDeclineResponse(cause error) (string, string) {
	if procErr, ok := processor.AsProcessorError(cause); ok {
		return procErr.Code, procErr.Text
	}
	if blockErr, ok := antifraud.AsBlockError(cause); ok {
		return declineCodeFraud, blockErr.Reason
	}
	return declineCodeError, cause.Error()
}

// approvedOrFallback プロセッサーの承認金額をパースし、欠損時はフォールバックを使う
func approvedOrFallback(approved string, fallback float64) float64 {
	if approved == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(approved, 64)
	if err != nil {
		return fallback
	}
	return amount.Round2(v)
}
