package token

import (
	"context"
)

// TokenRepository トークンリポジトリインターフェース
type TokenRepository interface {
	// Save トークンを保存
	Save(ctx context.Context, token *Token) error

	// FindByID トークンIDでトークンを取得
	FindByID(ctx context.Context, id string) (*Token, error)

	// UpdateBinInfo 解決済みのBIN情報をトークンに反映
	UpdateBinInfo(ctx context.Context, id string, info BinInfo) error
}
