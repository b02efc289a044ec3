package processor

import "fmt"

// Operation プロセッサーへの操作名（ワイヤ契約の固定トークン）
type Operation string

const (
	OperationTokens   Operation = "TOKENS"
	OperationCharge   Operation = "CHARGE"
	OperationDeferred Operation = "DEFERRED"
	OperationPreauth  Operation = "PREAUTH"
	OperationCapture  Operation = "CAPTURE"
	OperationVoid     Operation = "VOID"
)

// NewOperation 新しいOperationを作成
func NewOperation(s string) (Operation, error) {
	switch s {
	case "TOKENS", "CHARGE", "DEFERRED", "PREAUTH", "CAPTURE", "VOID":
		return Operation(s), nil
	default:
		return "", fmt.Errorf("invalid processor operation: %s", s)
	}
}

// String 文字列表現を返す
func (o Operation) String() string {
	return string(o)
}

// IsChargeLike リカバリーレコード書き込みの対象操作かどうかを返す
func (o Operation) IsChargeLike() bool {
	return o == OperationCharge || o == OperationDeferred
}
