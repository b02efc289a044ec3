package processor

import (
	"context"
	"time"
)

// RecoveryRecord 課金系操作の失敗時に残す復旧レコード
// ベストエフォートで書き込まれ、書き込み失敗が元エラーを隠すことはない
type RecoveryRecord struct {
	ID        string
	Operation Operation
	Request   []byte
	ExpiresAt time.Time
}

// RecoveryRepository 復旧レコードリポジトリインターフェース
type RecoveryRepository interface {
	// Save 復旧レコードを保存
	Save(ctx context.Context, record *RecoveryRecord) error
}
