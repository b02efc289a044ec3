package mysql

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"card-gateway/internal/domain/transaction"
)

// ChargeRecordRepository MySQL実装のChargeRecordRepository
type ChargeRecordRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewChargeRecordRepository 新しいChargeRecordRepositoryを作成
func NewChargeRecordRepository(db *DB) *ChargeRecordRepository {
	return &ChargeRecordRepository{
		db:     db,
		tracer: otel.Tracer("charge-record-repository"),
	}
}

// Save 課金監査レコードを保存
func (r *ChargeRecordRepository) Save(ctx context.Context, record *transaction.ChargeRecord) error {
	ctx, span := r.tracer.Start(ctx, "ChargeRecordRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.ticket_number", record.TicketNumber),
		attribute.String("db.transaction_id", record.TransactionID),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "charge_records"),
	)

	detail, err := json.Marshal(record.Detail)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to serialize charge record detail: %w", err)
	}

	query := `
		INSERT INTO charge_records (ticket_number, transaction_id, merchant_id, detail, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		record.TicketNumber,
		record.TransactionID,
		record.MerchantID,
		detail,
		record.ExpiresAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save charge record: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "charge record saved")
	return nil
}
