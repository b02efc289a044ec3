package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"card-gateway/internal/domain/deferred"
	"card-gateway/internal/domain/merchant"
)

// MerchantRepository MySQL実装のMerchantRepository
type MerchantRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewMerchantRepository 新しいMerchantRepositoryを作成
func NewMerchantRepository(db *DB) *MerchantRepository {
	return &MerchantRepository{
		db:     db,
		tracer: otel.Tracer("merchant-repository"),
	}
}

// FindByPublicID マーチャント公開IDでマーチャントを取得
// deferred_optionsはJSON列として保存されている
func (r *MerchantRepository) FindByPublicID(ctx context.Context, publicID string) (*merchant.Merchant, error) {
	ctx, span := r.tracer.Start(ctx, "MerchantRepository.FindByPublicID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.merchant_id", publicID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "merchants"),
	)

	query := `
		SELECT public_id, name, country, fraud_threshold, sandbox_enabled, deferred_options
		FROM merchants
		WHERE public_id = ?
	`

	var (
		id, name, country  string
		fraudThreshold     float64
		sandboxEnabled     bool
		deferredOptionsRaw sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, publicID).Scan(
		&id,
		&name,
		&country,
		&fraudThreshold,
		&sandboxEnabled,
		&deferredOptionsRaw,
	)
	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "merchant not found")
		return nil, merchant.ErrMerchantNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find merchant: %w", err)
	}

	var options []deferred.Option
	if deferredOptionsRaw.Valid && deferredOptionsRaw.String != "" {
		if err := json.Unmarshal([]byte(deferredOptionsRaw.String), &options); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to parse deferred options: %w", err)
		}
	}

	m, err := merchant.NewMerchant(id, name, country, fraudThreshold, sandboxEnabled, options)
	if err != nil {
		return nil, fmt.Errorf("failed to restore merchant: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "merchant found")
	return m, nil
}
