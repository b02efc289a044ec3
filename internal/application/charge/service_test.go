package charge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"card-gateway/internal/domain/antifraud"
	"card-gateway/internal/domain/binlookup"
	"card-gateway/internal/domain/deferred"
	"card-gateway/internal/domain/merchant"
	"card-gateway/internal/domain/processor"
	"card-gateway/internal/domain/ruleengine"
	"card-gateway/internal/domain/service"
	"card-gateway/internal/domain/token"
	"card-gateway/internal/domain/transaction"
	otelinfra "card-gateway/internal/infrastructure/observability/otel"
)

// mockMerchantRepository merchant.MerchantRepositoryのモック
type mockMerchantRepository struct {
	mock.Mock
}

func (m *mockMerchantRepository) FindByPublicID(ctx context.Context, publicID string) (*merchant.Merchant, error) {
	args := m.Called(ctx, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*merchant.Merchant), args.Error(1)
}

// mockTokenRepository token.TokenRepositoryのモック
type mockTokenRepository struct {
	mock.Mock
}

func (m *mockTokenRepository) Save(ctx context.Context, tk *token.Token) error {
	args := m.Called(ctx, tk)
	return args.Error(0)
}

func (m *mockTokenRepository) FindByID(ctx context.Context, id string) (*token.Token, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*token.Token), args.Error(1)
}

func (m *mockTokenRepository) UpdateBinInfo(ctx context.Context, id string, info token.BinInfo) error {
	args := m.Called(ctx, id, info)
	return args.Error(0)
}

// mockTransactionRepository transaction.TransactionRepositoryのモック
type mockTransactionRepository struct {
	mock.Mock
}

func (m *mockTransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockTransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *mockTransactionRepository) FindByTicketNumber(ctx context.Context, ticketNumber string) (*transaction.Transaction, error) {
	args := m.Called(ctx, ticketNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *mockTransactionRepository) UpdatePendingAmount(ctx context.Context, transactionID string, pendingAmount float64) error {
	args := m.Called(ctx, transactionID, pendingAmount)
	return args.Error(0)
}

// mockChargeRecordRepository transaction.ChargeRecordRepositoryのモック
type mockChargeRecordRepository struct {
	mock.Mock
}

func (m *mockChargeRecordRepository) Save(ctx context.Context, record *transaction.ChargeRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// mockRuleEngineClient ruleengine.Clientのモック
type mockRuleEngineClient struct {
	mock.Mock
}

func (m *mockRuleEngineClient) Resolve(ctx context.Context, req *ruleengine.Request) (*ruleengine.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ruleengine.Response), args.Error(1)
}

func (m *mockRuleEngineClient) Invoke(ctx context.Context, functionName string, payload interface{}, out interface{}) error {
	args := m.Called(ctx, functionName, payload, out)
	return args.Error(0)
}

// mockBinLookupClient binlookup.Clientのモック
type mockBinLookupClient struct {
	mock.Mock
}

func (m *mockBinLookupClient) Lookup(ctx context.Context, bin string, country string) (*binlookup.BinInfo, error) {
	args := m.Called(ctx, bin, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*binlookup.BinInfo), args.Error(1)
}

// mockFraudGate FraudGateのモック
type mockFraudGate struct {
	mock.Mock
}

func (m *mockFraudGate) Evaluate(ctx context.Context, mc *merchant.Merchant, tk *token.Token) error {
	args := m.Called(ctx, mc, tk)
	return args.Error(0)
}

// mockProcessorClient processor.Clientのモック
type mockProcessorClient struct {
	mock.Mock
}

func (m *mockProcessorClient) Send(ctx context.Context, op processor.Operation, req *processor.Request) (*processor.Response, error) {
	args := m.Called(ctx, op, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processor.Response), args.Error(1)
}

type chargeMocks struct {
	merchantRepo     *mockMerchantRepository
	tokenRepo        *mockTokenRepository
	transactionRepo  *mockTransactionRepository
	chargeRecordRepo *mockChargeRecordRepository
	ruleEngine       *mockRuleEngineClient
	binLookup        *mockBinLookupClient
	fraudGate        *mockFraudGate
	live             *mockProcessorClient
	sandbox          *mockProcessorClient
}

func (m *chargeMocks) assertExpectations(t *testing.T) {
	m.merchantRepo.AssertExpectations(t)
	m.tokenRepo.AssertExpectations(t)
	m.transactionRepo.AssertExpectations(t)
	m.chargeRecordRepo.AssertExpectations(t)
	m.ruleEngine.AssertExpectations(t)
	m.binLookup.AssertExpectations(t)
	m.fraudGate.AssertExpectations(t)
	m.live.AssertExpectations(t)
	m.sandbox.AssertExpectations(t)
}

func newTestChargeService(t *testing.T) (*ChargeApplicationService, *chargeMocks) {
	t.Helper()

	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	mocks := &chargeMocks{
		merchantRepo:     new(mockMerchantRepository),
		tokenRepo:        new(mockTokenRepository),
		transactionRepo:  new(mockTransactionRepository),
		chargeRecordRepo: new(mockChargeRecordRepository),
		ruleEngine:       new(mockRuleEngineClient),
		binLookup:        new(mockBinLookupClient),
		fraudGate:        new(mockFraudGate),
		live:             new(mockProcessorClient),
		sandbox:          new(mockProcessorClient),
	}

	svc := NewChargeApplicationService(
		mocks.merchantRepo,
		mocks.tokenRepo,
		mocks.transactionRepo,
		mocks.chargeRecordRepo,
		mocks.ruleEngine,
		mocks.binLookup,
		mocks.fraudGate,
		service.NewAmountResolver(map[string]float64{"USD": 0.12, "COP": 0.19}, []string{"affinity-proc"}),
		mocks.live,
		mocks.sandbox,
		true,
		24*time.Hour,
		otelinfra.NewLogger(otel.Tracer("test")),
		metrics,
	)
	return svc, mocks
}

func testChargeToken() *token.Token {
	return token.MustNewToken("token-001", "411111XXXXXX1111", "411111", "1111", "USD", 100.0, "ref-001")
}

func testSecureToken() *token.Token {
	tk := testChargeToken()
	tk.SetSecureService("secure-001", "3ds")
	return tk
}

func testChargeMerchant(sandboxEnabled bool) *merchant.Merchant {
	return merchant.MustNewMerchant("merchant-001", "Tienda Uno", "Ecuador", 0, sandboxEnabled, []deferred.Option{})
}

func testFraudMerchant() *merchant.Merchant {
	return merchant.MustNewMerchant("merchant-001", "Tienda Uno", "Ecuador", 0.8, false, []deferred.Option{})
}

func testChargeRequest() *ChargeRequest {
	return &ChargeRequest{
		TransactionID: "tx-001",
		MerchantID:    "merchant-001",
		TokenID:       "token-001",
		Currency:      "USD",
		Amount: AmountRequest{
			IVA:          12.0,
			SubtotalIVA:  100.0,
			SubtotalIVA0: 0,
		},
	}
}

func testRule() *ruleengine.Response {
	return &ruleengine.Response{
		ProcessorPublicID:  "proc-public",
		ProcessorPrivateID: "proc-private",
	}
}

func approvedResponse() *processor.Response {
	return &processor.Response{
		ResponseCode:   "000",
		ResponseText:   "Approved",
		TicketNumber:   "ticket-001",
		TransactionID:  "proc-tx-001",
		ApprovedAmount: "112.00",
		TransactionDetails: processor.TransactionDetails{
			ApprovalCode:      "APR001",
			ProcessorBankName: "Banco Uno",
		},
	}
}

func TestChargeApplicationService_Charge(t *testing.T) {
	tests := []struct {
		name         string
		request      *ChargeRequest
		setupMocks   func(m *chargeMocks)
		wantError    bool
		checkError   func(t *testing.T, err error)
		checkSuccess func(t *testing.T, resp *ChargeResponse)
	}{
		{
			name:    "正常系: 売上が承認される",
			request: testChargeRequest(),
			setupMocks: func(m *chargeMocks) {
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testChargeMerchant(false), nil)
				m.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(testChargeToken(), nil)
				m.ruleEngine.On("Resolve", mock.Anything, mock.MatchedBy(func(req *ruleengine.Request) bool {
					return req.TransactionType == "SALE" && req.TotalAmount == 112.0
				})).Return(testRule(), nil)
				m.live.On("Send", mock.Anything, processor.OperationCharge, mock.MatchedBy(func(req *processor.Request) bool {
					return req.Amount.TotalAmount == "112.00" && req.ProcessorID == "proc-private"
				})).Return(approvedResponse(), nil)
				m.chargeRecordRepo.On("Save", mock.Anything, mock.MatchedBy(func(r *transaction.ChargeRecord) bool {
					return r.TicketNumber == "ticket-001" && r.TransactionID == "tx-001"
				})).Return(nil)
				m.transactionRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *transaction.Transaction) bool {
					return tx.Status() == transaction.TransactionStatusApproval &&
						tx.TransactionType() == transaction.TransactionTypeSale &&
						tx.TicketNumber() == "ticket-001" &&
						tx.ApprovedAmount() == 112.0
				})).Return(nil)
			},
			checkSuccess: func(t *testing.T, resp *ChargeResponse) {
				assert.Equal(t, "ticket-001", resp.TicketNumber)
				assert.Equal(t, "000", resp.ResponseCode)
				assert.Equal(t, 112.0, resp.ApprovedAmount)
				assert.Equal(t, "APPROVAL", resp.Status)
			},
		},
		{
			name: "正常系: 分割払いはDEFERREDで送信される",
			request: func() *ChargeRequest {
				req := testChargeRequest()
				req.IsDeferred = true
				req.Months = 6
				req.DeferredType = "01"
				return req
			}(),
			setupMocks: func(m *chargeMocks) {
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testChargeMerchant(false), nil)
				m.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(testChargeToken(), nil)
				m.ruleEngine.On("Resolve", mock.Anything, mock.MatchedBy(func(req *ruleengine.Request) bool {
					return req.TransactionType == "DEFFERED" && req.IsDeferred
				})).Return(testRule(), nil)
				m.live.On("Send", mock.Anything, processor.OperationDeferred, mock.MatchedBy(func(req *processor.Request) bool {
					return req.Months == 6 && req.DeferredType == "01"
				})).Return(approvedResponse(), nil)
				m.chargeRecordRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
				m.transactionRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *transaction.Transaction) bool {
					return tx.TransactionType() == transaction.TransactionTypeDeferred
				})).Return(nil)
			},
			checkSuccess: func(t *testing.T, resp *ChargeResponse) {
				assert.Equal(t, "ticket-001", resp.TicketNumber)
			},
		},
		{
			name:    "正常系: アンチフラウド評価を通過して承認される",
			request: testChargeRequest(),
			setupMocks: func(m *chargeMocks) {
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testFraudMerchant(), nil)
				m.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(testSecureToken(), nil)
				m.ruleEngine.On("Resolve", mock.Anything, mock.Anything).Return(testRule(), nil)
				m.fraudGate.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(nil)
				m.live.On("Send", mock.Anything, processor.OperationCharge, mock.Anything).Return(approvedResponse(), nil)
				m.chargeRecordRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
				m.transactionRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
			checkSuccess: func(t *testing.T, resp *ChargeResponse) {
				assert.Equal(t, "ticket-001", resp.TicketNumber)
			},
		},
		{
			name:    "正常系: サンドボックス有効マーチャントはサンドボックスへ送信される",
			request: testChargeRequest(),
			setupMocks: func(m *chargeMocks) {
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testChargeMerchant(true), nil)
				m.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(testChargeToken(), nil)
				m.ruleEngine.On("Resolve", mock.Anything, mock.Anything).Return(testRule(), nil)
				m.sandbox.On("Send", mock.Anything, processor.OperationCharge, mock.Anything).Return(approvedResponse(), nil)
				m.chargeRecordRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
				m.transactionRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
			checkSuccess: func(t *testing.T, resp *ChargeResponse) {
				assert.Equal(t, "ticket-001", resp.TicketNumber)
			},
		},
		{
			name:    "正常系: 重複トランザクションIDは冪等成功として扱われる",
			request: testChargeRequest(),
			setupMocks: func(m *chargeMocks) {
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testChargeMerchant(false), nil)
				m.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(testChargeToken(), nil)
				m.ruleEngine.On("Resolve", mock.Anything, mock.Anything).Return(testRule(), nil)
				m.live.On("Send", mock.Anything, processor.OperationCharge, mock.Anything).Return(approvedResponse(), nil)
				m.chargeRecordRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
				m.transactionRepo.On("Create", mock.Anything, mock.Anything).Return(transaction.ErrDuplicateTransactionID)
			},
			checkSuccess: func(t *testing.T, resp *ChargeResponse) {
				assert.Equal(t, "ticket-001", resp.TicketNumber)
			},
		},
		{
			name: "正常系: サブスクリプションの空応答はチケットなしで成功する",
			request: func() *ChargeRequest {
				req := testChargeRequest()
				req.IsSubscription = true
				return req
			}(),
			setupMocks: func(m *chargeMocks) {
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testChargeMerchant(false), nil)
				m.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(testChargeToken(), nil)
				m.ruleEngine.On("Resolve", mock.Anything, mock.Anything).Return(testRule(), nil)
				m.live.On("Send", mock.Anything, processor.OperationCharge, mock.Anything).Return(&processor.Response{}, nil)
				m.chargeRecordRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
				m.transactionRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *transaction.Transaction) bool {
					return tx.Status() == transaction.TransactionStatusApproval && tx.ApprovedAmount() == 112.0
				})).Return(nil)
			},
			checkSuccess: func(t *testing.T, resp *ChargeResponse) {
				assert.Empty(t, resp.TicketNumber)
				assert.Equal(t, 112.0, resp.ApprovedAmount)
			},
		},
		{
			name: "正常系: トークン不在でも互換フラグがあればプレースホルダーで続行される",
			request: func() *ChargeRequest {
				req := testChargeRequest()
				req.AllowMissingToken = true
				return req
			}(),
			setupMocks: func(m *chargeMocks) {
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testChargeMerchant(false), nil)
				m.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(nil, token.ErrTokenNotFound)
				m.ruleEngine.On("Resolve", mock.Anything, mock.MatchedBy(func(req *ruleengine.Request) bool {
					return req.CardBin == "000000"
				})).Return(testRule(), nil)
				m.live.On("Send", mock.Anything, processor.OperationCharge, mock.Anything).Return(approvedResponse(), nil)
				m.chargeRecordRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
				m.transactionRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
			checkSuccess: func(t *testing.T, resp *ChargeResponse) {
				assert.Equal(t, "ticket-001", resp.TicketNumber)
			},
		},
		{
			name:    "正常系: PLCCルールは発行国スコープでブランドを引き直す",
			request: testChargeRequest(),
			setupMocks: func(m *chargeMocks) {
				rule := testRule()
				rule.PLCCFlag = true
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testChargeMerchant(false), nil)
				m.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(testChargeToken(), nil)
				m.ruleEngine.On("Resolve", mock.Anything, mock.Anything).Return(rule, nil)
				m.binLookup.On("Lookup", mock.Anything, "411111", "Ecuador").Return(&binlookup.BinInfo{
					Bank:  "Banco Uno",
					Brand: "PRIVATE_LABEL",
				}, nil)
				m.live.On("Send", mock.Anything, processor.OperationCharge, mock.MatchedBy(func(req *processor.Request) bool {
					return req.CardBrand == "PRIVATE_LABEL"
				})).Return(approvedResponse(), nil)
				m.chargeRecordRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
				m.transactionRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *transaction.Transaction) bool {
					return tx.CardBrand() == "PRIVATE_LABEL"
				})).Return(nil)
			},
			checkSuccess: func(t *testing.T, resp *ChargeResponse) {
				assert.Equal(t, "PRIVATE_LABEL", resp.CardBrand)
			},
		},
		{
			name:    "異常系: マーチャントが存在しない場合はDECLINEDを記録して失敗する",
			request: testChargeRequest(),
			setupMocks: func(m *chargeMocks) {
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(nil, merchant.ErrMerchantNotFound)
				m.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(testChargeToken(), nil).Maybe()
				m.transactionRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *transaction.Transaction) bool {
					return tx.Status() == transaction.TransactionStatusDeclined && tx.ResponseCode() == "ERROR"
				})).Return(nil)
			},
			wantError: true,
			checkError: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, merchant.ErrMerchantNotFound)
			},
		},
		{
			name:    "異常系: トークンが存在しない場合は失敗する",
			request: testChargeRequest(),
			setupMocks: func(m *chargeMocks) {
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testChargeMerchant(false), nil).Maybe()
				m.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(nil, token.ErrTokenNotFound)
				m.transactionRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *transaction.Transaction) bool {
					return tx.Status() == transaction.TransactionStatusDeclined
				})).Return(nil)
			},
			wantError: true,
			checkError: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, token.ErrTokenNotFound)
			},
		},
		{
			name:    "異常系: アンチフラウドブロックはFRAUDコードで記録される",
			request: testChargeRequest(),
			setupMocks: func(m *chargeMocks) {
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testFraudMerchant(), nil)
				m.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(testSecureToken(), nil)
				m.ruleEngine.On("Resolve", mock.Anything, mock.Anything).Return(testRule(), nil)
				m.fraudGate.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(&antifraud.BlockError{
					WorkflowName: "payment-review",
					Reason:       "blocking risk decision",
				})
				m.transactionRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *transaction.Transaction) bool {
					return tx.Status() == transaction.TransactionStatusDeclined &&
						tx.ResponseCode() == "FRAUD" &&
						tx.ResponseText() == "blocking risk decision"
				})).Return(nil)
			},
			wantError: true,
			checkError: func(t *testing.T, err error) {
				blockErr, ok := antifraud.AsBlockError(err)
				require.True(t, ok)
				assert.Equal(t, "payment-review", blockErr.WorkflowName)
			},
		},
		{
			name:    "異常系: プロセッサー拒否はそのコードで記録され再送出される",
			request: testChargeRequest(),
			setupMocks: func(m *chargeMocks) {
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testChargeMerchant(false), nil)
				m.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(testChargeToken(), nil)
				m.ruleEngine.On("Resolve", mock.Anything, mock.Anything).Return(testRule(), nil)
				m.live.On("Send", mock.Anything, processor.OperationCharge, mock.Anything).Return(nil,
					processor.NewProcessorError("220", "Tarjeta invalida", nil))
				m.transactionRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *transaction.Transaction) bool {
					return tx.Status() == transaction.TransactionStatusDeclined &&
						tx.ResponseCode() == "220" &&
						tx.ResponseText() == "Tarjeta invalida"
				})).Return(nil)
			},
			wantError: true,
			checkError: func(t *testing.T, err error) {
				procErr, ok := processor.AsProcessorError(err)
				require.True(t, ok)
				assert.Equal(t, "220", procErr.Code)
			},
		},
		{
			name:    "異常系: 非サブスクリプションで空チケットは拒否として扱われる",
			request: testChargeRequest(),
			setupMocks: func(m *chargeMocks) {
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testChargeMerchant(false), nil)
				m.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(testChargeToken(), nil)
				m.ruleEngine.On("Resolve", mock.Anything, mock.Anything).Return(testRule(), nil)
				m.live.On("Send", mock.Anything, processor.OperationCharge, mock.Anything).Return(&processor.Response{}, nil)
				m.transactionRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *transaction.Transaction) bool {
					return tx.Status() == transaction.TransactionStatusDeclined
				})).Return(nil)
			},
			wantError: true,
			checkError: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, processor.ErrEmptyTicketNumber)
			},
		},
		{
			name:    "異常系: 拒否記録の保存失敗は元エラーを包んで返される",
			request: testChargeRequest(),
			setupMocks: func(m *chargeMocks) {
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testChargeMerchant(false), nil)
				m.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(testChargeToken(), nil)
				m.ruleEngine.On("Resolve", mock.Anything, mock.Anything).Return(testRule(), nil)
				m.live.On("Send", mock.Anything, processor.OperationCharge, mock.Anything).Return(nil,
					processor.NewProcessorError("220", "Tarjeta invalida", nil))
				m.transactionRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
			},
			wantError: true,
			checkError: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "failed to record declined transaction")
			},
		},
		{
			name:    "異常系: トランザクション保存失敗は承認後でもエラーになる",
			request: testChargeRequest(),
			setupMocks: func(m *chargeMocks) {
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testChargeMerchant(false), nil)
				m.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(testChargeToken(), nil)
				m.ruleEngine.On("Resolve", mock.Anything, mock.Anything).Return(testRule(), nil)
				m.live.On("Send", mock.Anything, processor.OperationCharge, mock.Anything).Return(approvedResponse(), nil)
				m.chargeRecordRepo.On("Save", mock.Anything, mock.Anything).Return(nil).Maybe()
				m.transactionRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
			},
			wantError: true,
			checkError: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "failed to save transaction")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mocks := newTestChargeService(t)
			tt.setupMocks(mocks)

			resp, err := svc.Charge(context.Background(), tt.request)

			if tt.wantError {
				require.Error(t, err)
				if tt.checkError != nil {
					tt.checkError(t, err)
				}
			} else {
				require.NoError(t, err)
				require.NotNil(t, resp)
				tt.checkSuccess(t, resp)
			}
			mocks.assertExpectations(t)
		})
	}
}

func TestChargeApplicationService_Preauth(t *testing.T) {
	t.Run("正常系: 与信予約はアンチフラウドを通らずPREAUTHで送信される", func(t *testing.T) {
		svc, mocks := newTestChargeService(t)

		// セキュアID付きトークンとフラウド設定マーチャントでもゲートは呼ばれない
		mocks.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testFraudMerchant(), nil)
		mocks.tokenRepo.On("FindByID", mock.Anything, "token-001").Return(testSecureToken(), nil)
		mocks.ruleEngine.On("Resolve", mock.Anything, mock.MatchedBy(func(req *ruleengine.Request) bool {
			return req.TransactionType == "PREAUTH"
		})).Return(testRule(), nil)
		mocks.live.On("Send", mock.Anything, processor.OperationPreauth, mock.Anything).Return(approvedResponse(), nil)
		mocks.chargeRecordRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		mocks.transactionRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *transaction.Transaction) bool {
			return tx.TransactionType() == transaction.TransactionTypePreauth
		})).Return(nil)

		resp, err := svc.Preauth(context.Background(), testChargeRequest())

		require.NoError(t, err)
		assert.Equal(t, "ticket-001", resp.TicketNumber)
		mocks.fraudGate.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything)
		mocks.assertExpectations(t)
	})
}

func TestChargeApplicationService_Capture(t *testing.T) {
	preauthSale := func() *transaction.Transaction {
		tx := transaction.MustNewTransaction("tx-pre", "ref-001", "merchant-001", "token-001", "USD", 112.0,
			transaction.TransactionStatusApproval, transaction.TransactionTypePreauth)
		tx.SetTicketNumber("ticket-pre")
		tx.SetApprovedAmount(112.0)
		tx.SetProcessor("proc-public", "Banco Uno")
		tx.SetCardInfo("411111", "1111", "VISA")
		return tx
	}

	tests := []struct {
		name       string
		request    *CaptureRequest
		setupMocks func(m *chargeMocks)
		wantError  bool
		checkError func(t *testing.T, err error)
		wantAmount float64
	}{
		{
			name: "正常系: 全額で売上確定される",
			request: &CaptureRequest{
				TransactionID: "tx-cap",
				MerchantID:    "merchant-001",
				TicketNumber:  "ticket-pre",
			},
			setupMocks: func(m *chargeMocks) {
				m.transactionRepo.On("FindByTicketNumber", mock.Anything, "ticket-pre").Return(preauthSale(), nil)
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testChargeMerchant(false), nil)
				m.live.On("Send", mock.Anything, processor.OperationCapture, mock.MatchedBy(func(req *processor.Request) bool {
					return req.TicketNumber == "ticket-pre" && req.Amount.TotalAmount == "112.00"
				})).Return(approvedResponse(), nil)
				m.transactionRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *transaction.Transaction) bool {
					return tx.TransactionType() == transaction.TransactionTypeCapture &&
						tx.SaleTicketNumber() != nil && *tx.SaleTicketNumber() == "ticket-pre"
				})).Return(nil)
			},
			wantAmount: 112.0,
		},
		{
			name: "正常系: 一部金額で売上確定される",
			request: &CaptureRequest{
				TransactionID: "tx-cap",
				MerchantID:    "merchant-001",
				TicketNumber:  "ticket-pre",
				Amount:        floatPtr(60.5),
			},
			setupMocks: func(m *chargeMocks) {
				m.transactionRepo.On("FindByTicketNumber", mock.Anything, "ticket-pre").Return(preauthSale(), nil)
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testChargeMerchant(false), nil)
				resp := approvedResponse()
				resp.ApprovedAmount = "60.50"
				m.live.On("Send", mock.Anything, processor.OperationCapture, mock.MatchedBy(func(req *processor.Request) bool {
					return req.Amount.SubtotalIVA0 == "60.50" && req.Amount.TotalAmount == "60.50"
				})).Return(resp, nil)
				m.transactionRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *transaction.Transaction) bool {
					return tx.ApprovedAmount() == 60.5
				})).Return(nil)
			},
			wantAmount: 60.5,
		},
		{
			name: "異常系: 元の与信予約が見つからない場合は失敗する",
			request: &CaptureRequest{
				TransactionID: "tx-cap",
				MerchantID:    "merchant-001",
				TicketNumber:  "ticket-missing",
			},
			setupMocks: func(m *chargeMocks) {
				m.transactionRepo.On("FindByTicketNumber", mock.Anything, "ticket-missing").Return(nil, transaction.ErrTransactionNotFound)
			},
			wantError: true,
			checkError: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, transaction.ErrTransactionNotFound)
			},
		},
		{
			name: "異常系: プロセッサー拒否はDECLINEDのCAPTUREとして記録される",
			request: &CaptureRequest{
				TransactionID: "tx-cap",
				MerchantID:    "merchant-001",
				TicketNumber:  "ticket-pre",
			},
			setupMocks: func(m *chargeMocks) {
				m.transactionRepo.On("FindByTicketNumber", mock.Anything, "ticket-pre").Return(preauthSale(), nil)
				m.merchantRepo.On("FindByPublicID", mock.Anything, "merchant-001").Return(testChargeMerchant(false), nil)
				m.live.On("Send", mock.Anything, processor.OperationCapture, mock.Anything).Return(nil,
					processor.NewProcessorError("228", "Transaccion no permitida", nil))
				m.transactionRepo.On("Create", mock.Anything, mock.MatchedBy(func(tx *transaction.Transaction) bool {
					return tx.Status() == transaction.TransactionStatusDeclined &&
						tx.TransactionType() == transaction.TransactionTypeCapture &&
						tx.ResponseCode() == "228"
				})).Return(nil)
			},
			wantError: true,
			checkError: func(t *testing.T, err error) {
				procErr, ok := processor.AsProcessorError(err)
				require.True(t, ok)
				assert.Equal(t, "228", procErr.Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mocks := newTestChargeService(t)
			tt.setupMocks(mocks)

			resp, err := svc.Capture(context.Background(), tt.request)

			if tt.wantError {
				require.Error(t, err)
				if tt.checkError != nil {
					tt.checkError(t, err)
				}
			} else {
				require.NoError(t, err)
				require.NotNil(t, resp)
				assert.Equal(t, tt.wantAmount, resp.ApprovedAmount)
			}
			mocks.assertExpectations(t)
		})
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
