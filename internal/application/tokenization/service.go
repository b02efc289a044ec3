package tokenization

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"card-gateway/internal/domain/amount"
	"card-gateway/internal/domain/binlookup"
	"card-gateway/internal/domain/processor"
	"card-gateway/internal/domain/token"
	otelinfra "card-gateway/internal/infrastructure/observability/otel"
)

var (
	// ErrInvalidCardNumber カード番号が不正
	ErrInvalidCardNumber = errors.New("invalid card number")
	// ErrEmptyTokenID プロセッサーがトークンIDを返さなかった
	ErrEmptyTokenID = errors.New("processor returned empty token id")
)

var cardNumberRegex = regexp.MustCompile(`^[0-9]{10,19}$`)

// TokenizeApplicationService トークン化アプリケーションサービス
type TokenizeApplicationService struct {
	tokenRepo       token.TokenRepository
	processorClient processor.Client
	binLookup       binlookup.Client
	logger          *otelinfra.Logger
	metrics         *otelinfra.Metrics
	tracer          trace.Tracer
}

// NewTokenizeApplicationService 新しいTokenizeApplicationServiceを作成
func NewTokenizeApplicationService(
	tokenRepo token.TokenRepository,
	processorClient processor.Client,
	binLookup binlookup.Client,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *TokenizeApplicationService {
	return &TokenizeApplicationService{
		tokenRepo:       tokenRepo,
		processorClient: processorClient,
		binLookup:       binLookup,
		logger:          logger,
		metrics:         metrics,
		tracer:          otel.Tracer("tokenize-service"),
	}
}

// Tokenize カード提示をトークン化する
// PANは保存前にマスクされ、マスク後の形式以外は永続化されない
func (s *TokenizeApplicationService) Tokenize(ctx context.Context, req *TokenizeRequest) (*TokenizeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "TokenizeApplicationService.Tokenize")
	defer span.End()

	span.SetAttributes(
		attribute.String("merchant_id", req.MerchantID),
		attribute.String("currency", req.Currency),
		attribute.Float64("total_amount", req.TotalAmount),
	)

	if !cardNumberRegex.MatchString(req.CardNumber) {
		span.RecordError(ErrInvalidCardNumber)
		span.SetStatus(otelcodes.Error, ErrInvalidCardNumber.Error())
		return nil, ErrInvalidCardNumber
	}

	bin := req.CardNumber[:6]
	lastFour := req.CardNumber[len(req.CardNumber)-4:]
	masked := maskCardNumber(req.CardNumber)
	reference := uuid.NewString()

	s.logger.Info(ctx, "Tokenizing card", map[string]interface{}{
		"merchant_id": req.MerchantID,
		"bin":         bin,
		"reference":   reference,
	})

	resp, err := s.processorClient.Send(ctx, processor.OperationTokens, &processor.Request{
		TransactionReference: reference,
		MerchantID:           req.MerchantID,
		Currency:             req.Currency,
		Amount: amount.WireAmount{
			SubtotalIVA0: amount.FormatWire(req.TotalAmount),
			IVA:          amount.FormatWire(0),
			SubtotalIVA:  amount.FormatWire(0),
			TotalAmount:  amount.FormatWire(req.TotalAmount),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	if resp.TransactionID == "" {
		span.RecordError(ErrEmptyTokenID)
		span.SetStatus(otelcodes.Error, ErrEmptyTokenID.Error())
		return nil, ErrEmptyTokenID
	}

	tk, err := token.NewToken(resp.TransactionID, masked, bin, lastFour, req.Currency, req.TotalAmount, reference)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	if req.SecureID != "" {
		tk.SetSecureService(req.SecureID, req.SecureService)
	}

	// BIN情報の初回解決。失敗してもトークン化は成立させる
	cardBrand := ""
	if info, err := s.binLookup.Lookup(ctx, bin, ""); err == nil {
		cardBrand = info.Brand
		_ = tk.AttachBinInfo(token.BinInfo{
			Bank:     info.Bank,
			Brand:    info.Brand,
			Country:  info.Country,
			CardType: info.CardType,
		})
	} else if !errors.Is(err, binlookup.ErrBinNotFound) {
		s.logger.Warn(ctx, "Bin lookup failed during tokenization", map[string]interface{}{
			"bin":   bin,
			"error": err.Error(),
		})
	}

	if err := s.tokenRepo.Save(ctx, tk); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("token_id", tk.ID()))
	span.SetStatus(otelcodes.Ok, "card tokenized")

	return &TokenizeResponse{
		TokenID:              tk.ID(),
		TransactionReference: reference,
		MaskedCardNumber:     masked,
		CardBrand:            cardBrand,
	}, nil
}

// maskCardNumber 先頭6桁と末尾4桁以外を伏せ字にする
func maskCardNumber(cardNumber string) string {
	return cardNumber[:6] + strings.Repeat("X", len(cardNumber)-10) + cardNumber[len(cardNumber)-4:]
}
