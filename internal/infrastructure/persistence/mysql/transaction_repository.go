package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"card-gateway/internal/domain/transaction"
)

// MySQLの重複キーエラーコード
const mysqlErrDuplicateEntry = 1062

// TransactionRepository MySQL実装のTransactionRepository
type TransactionRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewTransactionRepository 新しいTransactionRepositoryを作成
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		tracer: otel.Tracer("transaction-repository"),
	}
}

// Create トランザクションを新規作成する
// transaction_idの一意制約により「存在しない場合のみ挿入」の条件付き書き込みとなる
func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.transaction_id", t.TransactionID()),
		attribute.String("db.merchant_id", t.MerchantID()),
		attribute.String("db.transaction_type", t.TransactionType().String()),
		attribute.String("db.status", t.Status().String()),
		attribute.Float64("db.request_amount", t.RequestAmount()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "transactions"),
	)

	query := `
		INSERT INTO transactions (
			transaction_id, transaction_reference, ticket_number, sale_ticket_number,
			merchant_id, token_id, currency, request_amount, approved_amount,
			pending_amount, processor_id, processor_bank_name, response_code,
			response_text, status, transaction_type, secure_id, secure_service,
			bin, last_four, card_brand, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var saleTicketValue interface{}
	if st := t.SaleTicketNumber(); st != nil {
		saleTicketValue = *st
	}
	var pendingValue interface{}
	if p := t.PendingAmount(); p != nil {
		pendingValue = *p
	}

	_, err := r.db.ExecContext(ctx, query,
		t.TransactionID(),
		t.TransactionReference(),
		t.TicketNumber(),
		saleTicketValue,
		t.MerchantID(),
		t.TokenID(),
		t.Currency(),
		t.RequestAmount(),
		t.ApprovedAmount(),
		pendingValue,
		t.ProcessorID(),
		t.ProcessorBankName(),
		t.ResponseCode(),
		t.ResponseText(),
		t.Status().String(),
		t.TransactionType().String(),
		t.SecureID(),
		t.SecureService(),
		t.Bin(),
		t.LastFour(),
		t.CardBrand(),
		t.CreatedAt(),
		t.UpdatedAt(),
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			span.SetStatus(otelcodes.Ok, "duplicate transaction id")
			return transaction.ErrDuplicateTransactionID
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "transaction created")
	return nil
}

// FindByTransactionID トランザクションIDでトランザクションを取得
func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.FindByTransactionID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.transaction_id", transactionID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "transactions"),
	)

	query := selectTransactionQuery + ` WHERE transaction_id = ?`
	return r.scanOne(ctx, span, query, transactionID)
}

// FindByTicketNumber チケット番号で売上トランザクションを取得
func (r *TransactionRepository) FindByTicketNumber(ctx context.Context, ticketNumber string) (*transaction.Transaction, error) {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.FindByTicketNumber")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.ticket_number", ticketNumber),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "transactions"),
	)

	query := selectTransactionQuery + ` WHERE ticket_number = ?`
	return r.scanOne(ctx, span, query, ticketNumber)
}

// UpdatePendingAmount 元トランザクションの残返金額を更新
func (r *TransactionRepository) UpdatePendingAmount(ctx context.Context, transactionID string, pendingAmount float64) error {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.UpdatePendingAmount")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.transaction_id", transactionID),
		attribute.Float64("db.pending_amount", pendingAmount),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "transactions"),
	)

	query := `UPDATE transactions SET pending_amount = ?, updated_at = NOW() WHERE transaction_id = ?`

	result, err := r.db.ExecContext(ctx, query, pendingAmount, transactionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to update pending amount: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		span.SetStatus(otelcodes.Ok, "transaction not found")
		return transaction.ErrTransactionNotFound
	}

	span.SetStatus(otelcodes.Ok, "pending amount updated")
	return nil
}

const selectTransactionQuery = `
	SELECT
		transaction_id, transaction_reference, ticket_number, sale_ticket_number,
		merchant_id, token_id, currency, request_amount, approved_amount,
		pending_amount, processor_id, processor_bank_name, response_code,
		response_text, status, transaction_type, secure_id, secure_service,
		bin, last_four, card_brand
	FROM transactions`

// scanOne 1行のトランザクションレコードをエンティティへ復元する
func (r *TransactionRepository) scanOne(ctx context.Context, span trace.Span, query string, arg interface{}) (*transaction.Transaction, error) {
	var (
		transactionID, transactionReference, ticketNumber    string
		merchantID, tokenID, currency                        string
		processorID, processorBankName                       string
		responseCode, responseText, status, transactionType  string
		secureID, secureService, bin, lastFour, cardBrand    string
		requestAmount, approvedAmount                        float64
		saleTicketNumber                                     sql.NullString
		pendingAmount                                        sql.NullFloat64
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&transactionID,
		&transactionReference,
		&ticketNumber,
		&saleTicketNumber,
		&merchantID,
		&tokenID,
		&currency,
		&requestAmount,
		&approvedAmount,
		&pendingAmount,
		&processorID,
		&processorBankName,
		&responseCode,
		&responseText,
		&status,
		&transactionType,
		&secureID,
		&secureService,
		&bin,
		&lastFour,
		&cardBrand,
	)
	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "transaction not found")
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}

	ts, err := transaction.NewTransactionStatus(status)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction status: %w", err)
	}
	tt, err := transaction.NewTransactionType(transactionType)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction type: %w", err)
	}

	t, err := transaction.NewTransaction(
		transactionID,
		transactionReference,
		merchantID,
		tokenID,
		currency,
		requestAmount,
		ts,
		tt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to restore transaction: %w", err)
	}

	t.SetTicketNumber(ticketNumber)
	t.SetApprovedAmount(approvedAmount)
	t.SetProcessor(processorID, processorBankName)
	t.SetResponse(responseCode, responseText)
	t.SetSecureService(secureID, secureService)
	t.SetCardInfo(bin, lastFour, cardBrand)
	if saleTicketNumber.Valid {
		t.SetSaleTicketNumber(saleTicketNumber.String)
	}
	if pendingAmount.Valid {
		t.SetPendingAmount(pendingAmount.Float64)
	}

	span.SetStatus(otelcodes.Ok, "transaction found")
	return t, nil
}
