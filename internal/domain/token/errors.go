package token

import "errors"

var (
	// ErrTokenNotFound トークンが見つからないエラー
	ErrTokenNotFound = errors.New("token not found")
	// ErrInvalidTokenID トークンIDが無効
	ErrInvalidTokenID = errors.New("invalid token id")
	// ErrInvalidBin BINが無効
	ErrInvalidBin = errors.New("invalid bin")
	// ErrInvalidAmount 金額が無効
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrBinInfoAlreadySet BIN情報が既に付与済み
	ErrBinInfoAlreadySet = errors.New("bin info already set")
)
