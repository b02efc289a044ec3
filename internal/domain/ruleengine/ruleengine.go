package ruleengine

import (
	"context"
)

// Request ルールエンジンへのルーティング問い合わせ
type Request struct {
	CardBin         string  `json:"cardBin"`
	CardBrand       string  `json:"cardBrand"`
	CustomerID      string  `json:"customerId"`
	MerchantID      string  `json:"merchantId"`
	TransactionType string  `json:"transactionType"`
	Currency        string  `json:"currency"`
	TotalAmount     float64 `json:"totalAmount"`
	IsDeferred      bool    `json:"isDeferred"`
}

// Response ルールエンジンのルーティング結果
type Response struct {
	ProcessorPublicID  string `json:"processorPublicId"`
	ProcessorPrivateID string `json:"processorPrivateId"`
	PLCCFlag           bool   `json:"plccFlag"`
	SecureServiceID    string `json:"secureServiceId,omitempty"`
	SecureServiceName  string `json:"secureServiceName,omitempty"`
}

// Client ルールエンジンクライアントインターフェース
// Lambda形式の関数呼び出しで補助ルールの解決にも使われる
type Client interface {
	// Resolve ルーティングルールを解決
	Resolve(ctx context.Context, req *Request) (*Response, error)

	// Invoke 任意の関数を名前指定で呼び出す（サンドボックス委譲などの補助経路）
	Invoke(ctx context.Context, functionName string, payload interface{}, out interface{}) error
}
