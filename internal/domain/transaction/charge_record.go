package transaction

import (
	"context"
	"time"
)

// ChargeRecord 課金成功時の監査レコード
// Transactionと並行して書き込まれ、突合レポートの照会元になる
type ChargeRecord struct {
	TicketNumber  string
	TransactionID string
	MerchantID    string
	Detail        map[string]interface{}
	ExpiresAt     time.Time
}

// ChargeRecordRepository 課金監査レコードリポジトリインターフェース
type ChargeRecordRepository interface {
	// Save 課金監査レコードを保存
	Save(ctx context.Context, record *ChargeRecord) error
}
