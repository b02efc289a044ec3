package transaction

import (
	"fmt"
)

// TransactionType トランザクションタイプを表す値オブジェクト
// DEFFEREDの綴りはプロセッサーとのワイヤ契約に合わせている
type TransactionType string

const (
	TransactionTypeSale     TransactionType = "SALE"     // 売上
	TransactionTypePreauth  TransactionType = "PREAUTH"  // 与信予約
	TransactionTypeCapture  TransactionType = "CAPTURE"  // 売上確定
	TransactionTypeVoid     TransactionType = "VOID"     // 取消
	TransactionTypeDeferred TransactionType = "DEFFERED" // 分割払い
)

// NewTransactionType 新しいTransactionTypeを作成
func NewTransactionType(s string) (TransactionType, error) {
	switch s {
	case "SALE", "PREAUTH", "CAPTURE", "VOID", "DEFFERED":
		return TransactionType(s), nil
	default:
		return "", fmt.Errorf("invalid transaction type: %s", s)
	}
}

// String 文字列表現を返す
func (tt TransactionType) String() string {
	return string(tt)
}

// Valid 有効なトランザクションタイプかどうかを返す
func (tt TransactionType) Valid() bool {
	switch tt {
	case TransactionTypeSale, TransactionTypePreauth, TransactionTypeCapture, TransactionTypeVoid, TransactionTypeDeferred:
		return true
	default:
		return false
	}
}

// IsCharge 課金系（売上・分割払い）かどうかを返す
func (tt TransactionType) IsCharge() bool {
	return tt == TransactionTypeSale || tt == TransactionTypeDeferred
}
