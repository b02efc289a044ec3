package processor

import (
	"context"
)

// Client プロセッサークライアントインターフェース
// 1回のオーケストレーター実行につき呼び出しは1回のみ（リトライは行わない）
type Client interface {
	// Send リクエストを暗号化して送信し、レスポンスを返す
	Send(ctx context.Context, op Operation, req *Request) (*Response, error)
}
