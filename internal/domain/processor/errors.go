package processor

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPayload 空のペイロードをエンコードしようとしたエラー
	ErrEmptyPayload = errors.New("empty payload produced zero cipher chunks")
	// ErrEmptyTicketNumber 承認レスポンスにチケット番号がないエラー
	ErrEmptyTicketNumber = errors.New("processor response has empty ticket number")
)

// ProcessorError プロセッサーからの構造化された拒否
// レスポンスコード・テキスト・詳細をそのまま呼び出し元へ伝搬する
type ProcessorError struct {
	Code   string
	Text   string
	Detail map[string]interface{}
}

// Error errorインターフェースの実装
func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor error %s: %s", e.Code, e.Text)
}

// NewProcessorError 新しいProcessorErrorを作成
func NewProcessorError(code, text string, detail map[string]interface{}) *ProcessorError {
	return &ProcessorError{Code: code, Text: text, Detail: detail}
}

// AsProcessorError errをProcessorErrorとして取り出す
func AsProcessorError(err error) (*ProcessorError, bool) {
	var pe *ProcessorError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
