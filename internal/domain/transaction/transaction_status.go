package transaction

import (
	"fmt"
)

// TransactionStatus トランザクションステータスを表す値オブジェクト
type TransactionStatus string

const (
	TransactionStatusApproval    TransactionStatus = "APPROVAL"    // 承認
	TransactionStatusDeclined    TransactionStatus = "DECLINED"    // 拒否
	TransactionStatusInitialized TransactionStatus = "INITIALIZED" // 初期化済み
)

// NewTransactionStatus 新しいTransactionStatusを作成
func NewTransactionStatus(s string) (TransactionStatus, error) {
	switch s {
	case "APPROVAL", "DECLINED", "INITIALIZED":
		return TransactionStatus(s), nil
	default:
		return "", fmt.Errorf("invalid transaction status: %s", s)
	}
}

// String 文字列表現を返す
func (ts TransactionStatus) String() string {
	return string(ts)
}

// Valid 有効なトランザクションステータスかどうかを返す
func (ts TransactionStatus) Valid() bool {
	switch ts {
	case TransactionStatusApproval, TransactionStatusDeclined, TransactionStatusInitialized:
		return true
	default:
		return false
	}
}

// IsApproval 承認状態かどうかを返す
func (ts TransactionStatus) IsApproval() bool {
	return ts == TransactionStatusApproval
}

// IsDeclined 拒否状態かどうかを返す
func (ts TransactionStatus) IsDeclined() bool {
	return ts == TransactionStatusDeclined
}
