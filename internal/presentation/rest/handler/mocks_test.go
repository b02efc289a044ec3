package handler

import (
	"context"
	"database/sql"

	"card-gateway/internal/domain/binlookup"
	"card-gateway/internal/domain/merchant"
	"card-gateway/internal/domain/processor"
	"card-gateway/internal/domain/ruleengine"
	"card-gateway/internal/domain/token"
	"card-gateway/internal/domain/transaction"

	"github.com/stretchr/testify/mock"
)

// MockMerchantRepository モックマーチャントリポジトリ
type MockMerchantRepository struct {
	mock.Mock
}

func (m *MockMerchantRepository) FindByPublicID(ctx context.Context, publicID string) (*merchant.Merchant, error) {
	args := m.Called(ctx, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*merchant.Merchant), args.Error(1)
}

// MockTokenRepository モックトークンリポジトリ
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Save(ctx context.Context, tk *token.Token) error {
	args := m.Called(ctx, tk)
	return args.Error(0)
}

func (m *MockTokenRepository) FindByID(ctx context.Context, id string) (*token.Token, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Token), args.Error(1)
}

func (m *MockTokenRepository) UpdateBinInfo(ctx context.Context, id string, info token.BinInfo) error {
	args := m.Called(ctx, id, info)
	return args.Error(0)
}

// MockTransactionRepository モックトランザクションリポジトリ
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByTicketNumber(ctx context.Context, ticketNumber string) (*transaction.Transaction, error) {
	args := m.Called(ctx, ticketNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdatePendingAmount(ctx context.Context, transactionID string, pendingAmount float64) error {
	args := m.Called(ctx, transactionID, pendingAmount)
	return args.Error(0)
}

// MockChargeRecordRepository モック課金記録リポジトリ
type MockChargeRecordRepository struct {
	mock.Mock
}

func (m *MockChargeRecordRepository) Save(ctx context.Context, record *transaction.ChargeRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockRuleEngineClient モックルールエンジンクライアント
type MockRuleEngineClient struct {
	mock.Mock
}

func (m *MockRuleEngineClient) Resolve(ctx context.Context, req *ruleengine.Request) (*ruleengine.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ruleengine.Response), args.Error(1)
}

func (m *MockRuleEngineClient) Invoke(ctx context.Context, functionName string, payload interface{}, out interface{}) error {
	args := m.Called(ctx, functionName, payload, out)
	return args.Error(0)
}

// MockBinLookupClient モックBIN照会クライアント
type MockBinLookupClient struct {
	mock.Mock
}

func (m *MockBinLookupClient) Lookup(ctx context.Context, bin string, country string) (*binlookup.BinInfo, error) {
	args := m.Called(ctx, bin, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*binlookup.BinInfo), args.Error(1)
}

// MockFraudGate モックアンチフラウドゲート
type MockFraudGate struct {
	mock.Mock
}

func (m *MockFraudGate) Evaluate(ctx context.Context, mc *merchant.Merchant, tk *token.Token) error {
	args := m.Called(ctx, mc, tk)
	return args.Error(0)
}

// MockProcessorClient モックプロセッサークライアント
type MockProcessorClient struct {
	mock.Mock
}

func (m *MockProcessorClient) Send(ctx context.Context, op processor.Operation, req *processor.Request) (*processor.Response, error) {
	args := m.Called(ctx, op, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processor.Response), args.Error(1)
}

// MockTransactionManager モックトランザクションマネージャー
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	args := m.Called(ctx, fn)
	if fn != nil {
		return fn(nil)
	}
	return args.Error(0)
}
