package deferredoptions

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"card-gateway/internal/domain/binlookup"
	"card-gateway/internal/domain/deferred"
	"card-gateway/internal/domain/merchant"
	"card-gateway/internal/domain/service"
	otelinfra "card-gateway/internal/infrastructure/observability/otel"
)

// DeferredOptionsApplicationService 分割払いマトリクス照会サービス
type DeferredOptionsApplicationService struct {
	merchantRepo  merchant.MerchantRepository
	binLookup     binlookup.Client
	matrixBuilder *service.DeferredMatrixBuilder
	logger        *otelinfra.Logger
	tracer        trace.Tracer
}

// NewDeferredOptionsApplicationService 新しいDeferredOptionsApplicationServiceを作成
func NewDeferredOptionsApplicationService(
	merchantRepo merchant.MerchantRepository,
	binLookup binlookup.Client,
	matrixBuilder *service.DeferredMatrixBuilder,
	logger *otelinfra.Logger,
) *DeferredOptionsApplicationService {
	return &DeferredOptionsApplicationService{
		merchantRepo:  merchantRepo,
		binLookup:     binLookup,
		matrixBuilder: matrixBuilder,
		logger:        logger,
		tracer:        otel.Tracer("deferred-options-service"),
	}
}

// Query BINとマーチャントの国から分割払いマトリクスを組み立てる
// ルール未設定やBIN未解決は空のマトリクスでありエラーではない
func (s *DeferredOptionsApplicationService) Query(ctx context.Context, merchantID string, bin string) ([]deferred.MatrixEntry, error) {
	ctx, span := s.tracer.Start(ctx, "DeferredOptionsApplicationService.Query")
	defer span.End()

	span.SetAttributes(
		attribute.String("merchant_id", merchantID),
		attribute.String("bin", bin),
	)

	m, err := s.merchantRepo.FindByPublicID(ctx, merchantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	bank := ""
	cardType := deferred.CardTypeCredit
	info, err := s.binLookup.Lookup(ctx, bin, "")
	switch {
	case err == nil:
		bank = info.Bank
		cardType = info.CardType
	case errors.Is(err, binlookup.ErrBinNotFound):
		s.logger.Info(ctx, "Bin not found for deferred options", map[string]interface{}{
			"merchant_id": merchantID,
			"bin":         bin,
		})
	default:
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	matrix := s.matrixBuilder.Build(m.Country(), bank, bin, cardType, m.DeferredOptions())

	span.SetAttributes(attribute.Int("deferred.entries", len(matrix)))
	span.SetStatus(otelcodes.Ok, "matrix built")
	return matrix, nil
}
