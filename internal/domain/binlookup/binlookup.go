package binlookup

import (
	"context"
	"errors"
)

// ErrBinNotFound BINが見つからないエラー
var ErrBinNotFound = errors.New("bin not found")

// BinInfo BINルックアップの結果
type BinInfo struct {
	Bank     string `json:"bank"`
	Brand    string `json:"brand"`
	Country  string `json:"country"`
	CardType string `json:"type"`
}

// Client BINルックアップサービスクライアントインターフェース
type Client interface {
	// Lookup BINから発行元情報を取得する。countryで発行国を絞り込める
	Lookup(ctx context.Context, bin string, country string) (*BinInfo, error)
}
