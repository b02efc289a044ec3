package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"card-gateway/internal/domain/token"
)

// TokenRepository MySQL実装のTokenRepository
type TokenRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewTokenRepository 新しいTokenRepositoryを作成
func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{
		db:     db,
		tracer: otel.Tracer("token-repository"),
	}
}

// Save トークンを保存
func (r *TokenRepository) Save(ctx context.Context, tk *token.Token) error {
	ctx, span := r.tracer.Start(ctx, "TokenRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.token_id", tk.ID()),
		attribute.String("db.currency", tk.Currency()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "tokens"),
	)

	query := `
		INSERT INTO tokens (
			token_id, masked_card_number, bin, last_four, currency,
			total_amount, transaction_reference, secure_id, secure_service, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		tk.ID(),
		tk.MaskedCardNumber(),
		tk.Bin(),
		tk.LastFour(),
		tk.Currency(),
		tk.TotalAmount(),
		tk.TransactionReference(),
		tk.SecureID(),
		tk.SecureService(),
		tk.CreatedAt(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save token: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "token saved")
	return nil
}

// FindByID トークンIDでトークンを取得
func (r *TokenRepository) FindByID(ctx context.Context, id string) (*token.Token, error) {
	ctx, span := r.tracer.Start(ctx, "TokenRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.token_id", id),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "tokens"),
	)

	query := `
		SELECT
			token_id, masked_card_number, bin, last_four, currency,
			total_amount, transaction_reference, secure_id, secure_service,
			bin_bank, bin_brand, bin_country, bin_card_type
		FROM tokens
		WHERE token_id = ?
	`

	var (
		tokenID, maskedCardNumber, bin, lastFour, currency string
		transactionReference, secureID, secureService      string
		totalAmount                                        float64
		binBank, binBrand, binCountry, binCardType         sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tokenID,
		&maskedCardNumber,
		&bin,
		&lastFour,
		&currency,
		&totalAmount,
		&transactionReference,
		&secureID,
		&secureService,
		&binBank,
		&binBrand,
		&binCountry,
		&binCardType,
	)
	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "token not found")
		return nil, token.ErrTokenNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find token: %w", err)
	}

	tk, err := token.NewToken(tokenID, maskedCardNumber, bin, lastFour, currency, totalAmount, transactionReference)
	if err != nil {
		return nil, fmt.Errorf("failed to restore token: %w", err)
	}
	tk.SetSecureService(secureID, secureService)
	if binBank.Valid {
		if err := tk.AttachBinInfo(token.BinInfo{
			Bank:     binBank.String,
			Brand:    binBrand.String,
			Country:  binCountry.String,
			CardType: binCardType.String,
		}); err != nil {
			return nil, fmt.Errorf("failed to restore bin info: %w", err)
		}
	}

	span.SetStatus(otelcodes.Ok, "token found")
	return tk, nil
}

// UpdateBinInfo 解決済みのBIN情報をトークンに反映
func (r *TokenRepository) UpdateBinInfo(ctx context.Context, id string, info token.BinInfo) error {
	ctx, span := r.tracer.Start(ctx, "TokenRepository.UpdateBinInfo")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.token_id", id),
		attribute.String("db.bin_bank", info.Bank),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "tokens"),
	)

	query := `
		UPDATE tokens
		SET bin_bank = ?, bin_brand = ?, bin_country = ?, bin_card_type = ?
		WHERE token_id = ?
	`

	result, err := r.db.ExecContext(ctx, query, info.Bank, info.Brand, info.Country, info.CardType, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to update bin info: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		span.SetStatus(otelcodes.Ok, "token not found")
		return token.ErrTokenNotFound
	}

	span.SetStatus(otelcodes.Ok, "bin info updated")
	return nil
}
