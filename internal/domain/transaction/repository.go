package transaction

import (
	"context"
)

// TransactionRepository トランザクションリポジトリインターフェース
type TransactionRepository interface {
	// Create トランザクションを新規作成する
	// 同一トランザクションIDが既に存在する場合はErrDuplicateTransactionIDを返す
	// （条件付き書き込み。呼び出し側のリトライでも高々1件の永続化を保証する）
	Create(ctx context.Context, transaction *Transaction) error

	// FindByTransactionID トランザクションIDでトランザクションを取得
	FindByTransactionID(ctx context.Context, transactionID string) (*Transaction, error)

	// FindByTicketNumber チケット番号で売上トランザクションを取得
	FindByTicketNumber(ctx context.Context, ticketNumber string) (*Transaction, error)

	// UpdatePendingAmount 元トランザクションの残返金額を更新
	UpdatePendingAmount(ctx context.Context, transactionID string, pendingAmount float64) error
}
