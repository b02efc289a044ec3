package service

import (
	"errors"
	"sync"

	"card-gateway/internal/domain/amount"
	"card-gateway/internal/domain/transaction"
)

// PartialVoidCurrency 部分取消をサポートする唯一の通貨
const PartialVoidCurrency = "USD"

var (
	// ErrNothingToRefund 返金可能額が残っていないエラー（再試行不可）
	ErrNothingToRefund = errors.New("nothing left to refund")
	// ErrRefundExceedsBalance 要求額が返金可能額を超えるエラー（再試行不可）
	ErrRefundExceedsBalance = errors.New("requested amount exceeds refundable balance")
	// ErrPartialVoidUnsupportedCurrency 部分取消非対応の通貨エラー（再試行不可）
	ErrPartialVoidUnsupportedCurrency = errors.New("currency does not support partial void")
)

// VoidCheck 部分取消チェックの結果
// LedgerUpdateがtrueの場合、NewPendingAmountを元トランザクションへ永続化すること
type VoidCheck struct {
	Partial          bool
	LedgerUpdate     bool
	EffectiveAmount  float64
	NewPendingAmount float64
}

// PartialVoidLedger トランザクションごとの累積返金額を検証するドメインサービス
// 残返金額のread-then-writeはトランザクションID単位のミューテックスで直列化する
// （単一インスタンス内でのみ有効。インスタンスをまたぐ同時部分取消は保証外）
type PartialVoidLedger struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPartialVoidLedger 新しいPartialVoidLedgerを作成
func NewPartialVoidLedger() *PartialVoidLedger {
	return &PartialVoidLedger{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock トランザクションID単位のクリティカルセクションに入る
// 返り値のUnlockを必ず呼ぶこと
func (l *PartialVoidLedger) Lock(transactionID string) func() {
	l.mu.Lock()
	m, ok := l.locks[transactionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[transactionID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Check 部分取消要求を元トランザクションの台帳と照合する
// requestedAmountがnilの場合は全額取消として常に許可する
func (l *PartialVoidLedger) Check(requestedAmount *float64, tx *transaction.Transaction) (*VoidCheck, error) {
	if requestedAmount == nil {
		return &VoidCheck{
			Partial:         false,
			EffectiveAmount: tx.RequestAmount(),
		}, nil
	}

	requested := amount.Round2(*requestedAmount)

	// 承認金額ちょうどの要求は全額取消であり台帳には触れない
	if requested == tx.ApprovedAmount() {
		return &VoidCheck{
			Partial:         false,
			EffectiveAmount: requested,
		}, nil
	}

	compareBase := tx.ApprovedAmount()
	if pending := tx.PendingAmount(); pending != nil {
		compareBase = *pending
	}

	if compareBase == 0 {
		return nil, ErrNothingToRefund
	}
	if requested > compareBase {
		return nil, ErrRefundExceedsBalance
	}
	if tx.Currency() != PartialVoidCurrency {
		return nil, ErrPartialVoidUnsupportedCurrency
	}

	newPending := amount.Round2(compareBase - requested)
	return &VoidCheck{
		Partial:          newPending != 0,
		LedgerUpdate:     true,
		EffectiveAmount:  requested,
		NewPendingAmount: newPending,
	}, nil
}
