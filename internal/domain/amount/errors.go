package amount

import "errors"

var (
	// ErrMissingTaxRate 通貨に対応するIVA税率が設定されていないエラー（設定不備）
	ErrMissingTaxRate = errors.New("missing tax rate configuration")
	// ErrUnknownTaxName 追加税名が税コード表に存在しないエラー（設定不備）
	ErrUnknownTaxName = errors.New("unknown extra tax name")
)
