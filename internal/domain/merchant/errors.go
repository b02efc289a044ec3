package merchant

import "errors"

var (
	// ErrMerchantNotFound マーチャントが見つからないエラー
	ErrMerchantNotFound = errors.New("merchant not found")
	// ErrInvalidMerchantID マーチャントIDが無効
	ErrInvalidMerchantID = errors.New("invalid merchant id")
)
