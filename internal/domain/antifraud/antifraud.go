package antifraud

import (
	"context"
)

// Order リスク注文の作成結果
type Order struct {
	OrderID string
}

// WorkflowResult ワークフロー評価の結果
type WorkflowResult struct {
	Scores    Scores
	Workflows []Workflow
}

// Scores ワークフローのスコア群
type Scores struct {
	PaymentAbuse float64
}

// Workflow 名前付きリスクレビュープロセス
type Workflow struct {
	Name    string
	Status  string
	History []HistoryEntry
}

// HistoryEntry ワークフロー履歴のエントリ
type HistoryEntry struct {
	App        string
	Name       string
	DecisionID string
}

// Decision リスク判断の詳細
type Decision struct {
	ID       string
	Name     string
	Category string
}

// ワークフローステータス
const (
	WorkflowStatusFailed   = "failed"
	WorkflowStatusFinished = "finished"
	WorkflowStatusRunning  = "running"
)

// 履歴エントリのアプリ種別と、課金を停止する判断カテゴリ
const (
	HistoryAppDecision = "decision"
	CategoryBlock      = "block"
)

// Client アンチフラウドサービスクライアントインターフェース
type Client interface {
	// CreateOrder リスク注文を作成
	CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error)

	// GetWorkflowStatus ワークフロー評価結果を取得
	GetWorkflowStatus(ctx context.Context, orderID string) (*WorkflowResult, error)

	// GetDecision 判断の詳細を取得
	GetDecision(ctx context.Context, decisionID string) (*Decision, error)
}

// OrderRequest リスク注文の作成リクエスト
type OrderRequest struct {
	MerchantID    string
	SecureID      string
	SecureService string
	Currency      string
	TotalAmount   float64
	CardBin       string
	CardLastFour  string
}
