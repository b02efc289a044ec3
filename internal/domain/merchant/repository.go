package merchant

import (
	"context"
)

// MerchantRepository マーチャントリポジトリインターフェース
type MerchantRepository interface {
	// FindByPublicID マーチャント公開IDでマーチャントを取得
	FindByPublicID(ctx context.Context, publicID string) (*Merchant, error)
}
