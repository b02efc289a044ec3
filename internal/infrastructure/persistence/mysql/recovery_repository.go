package mysql

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"card-gateway/internal/domain/processor"
)

// RecoveryRepository MySQL実装のRecoveryRepository
type RecoveryRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewRecoveryRepository 新しいRecoveryRepositoryを作成
func NewRecoveryRepository(db *DB) *RecoveryRepository {
	return &RecoveryRepository{
		db:     db,
		tracer: otel.Tracer("recovery-repository"),
	}
}

// Save 復旧レコードを保存
// expires_atを過ぎたレコードは突合バッチが掃除する
func (r *RecoveryRepository) Save(ctx context.Context, record *processor.RecoveryRecord) error {
	ctx, span := r.tracer.Start(ctx, "RecoveryRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.recovery_id", record.ID),
		attribute.String("db.recovery_operation", record.Operation.String()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "recovery_records"),
	)

	query := `
		INSERT INTO recovery_records (recovery_id, operation, request, expires_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Operation.String(),
		record.Request,
		record.ExpiresAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save recovery record: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "recovery record saved")
	return nil
}
