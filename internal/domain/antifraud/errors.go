package antifraud

import (
	"errors"
	"fmt"
)

// BlockError アンチフラウドによる課金の停止
// ポリシーエラーであり再試行しない。DECLINEDトランザクションとして必ず記録される
type BlockError struct {
	WorkflowName string
	DecisionName string
	Reason       string
}

// Error errorインターフェースの実装
func (e *BlockError) Error() string {
	if e.WorkflowName != "" {
		return fmt.Sprintf("transaction blocked by antifraud: %s (workflow=%s, decision=%s)", e.Reason, e.WorkflowName, e.DecisionName)
	}
	return fmt.Sprintf("transaction blocked by antifraud: %s", e.Reason)
}

// AsBlockError errをBlockErrorとして取り出す
func AsBlockError(err error) (*BlockError, bool) {
	var be *BlockError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
