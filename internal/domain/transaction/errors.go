package transaction

import "errors"

var (
	// ErrTransactionNotFound トランザクションが見つからないエラー
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvalidTransaction 無効なトランザクションエラー
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrInvalidTransactionID トランザクションIDが無効
	ErrInvalidTransactionID = errors.New("invalid transaction id")
	// ErrInvalidMerchantID マーチャントIDが無効
	ErrInvalidMerchantID = errors.New("invalid merchant id")
	// ErrInvalidAmount 金額が無効
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrDuplicateTransactionID 重複トランザクションIDエラー
	// 条件付き書き込みの不成立を表し、呼び出し元は冪等成功として扱える
	ErrDuplicateTransactionID = errors.New("duplicate transaction id")
)
