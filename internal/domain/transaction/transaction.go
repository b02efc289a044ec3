package transaction

import (
	"regexp"
	"time"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]{1,255}$`)

// Transaction 決済操作の試行1回を記録するエンティティ
// 操作の試行ごとに必ず1件作成される（成功・失敗を問わない）
type Transaction struct {
	transactionID        string
	transactionReference string
	ticketNumber         string
	saleTicketNumber     *string
	merchantID           string
	tokenID              string
	currency             string
	requestAmount        float64
	approvedAmount       float64
	pendingAmount        *float64
	processorID          string
	processorBankName    string
	responseCode         string
	responseText         string
	status               TransactionStatus
	transactionType      TransactionType
	secureID             string
	secureService        string
	bin                  string
	lastFour             string
	cardBrand            string
	createdAt            time.Time
	updatedAt            time.Time
}

// NewTransaction 新しいTransactionエンティティを作成
func NewTransaction(
	transactionID string,
	transactionReference string,
	merchantID string,
	tokenID string,
	currency string,
	requestAmount float64,
	status TransactionStatus,
	transactionType TransactionType,
) (*Transaction, error) {
	if !idRegex.MatchString(transactionID) {
		return nil, ErrInvalidTransactionID
	}
	if merchantID == "" {
		return nil, ErrInvalidMerchantID
	}
	if requestAmount < 0 {
		return nil, ErrInvalidAmount
	}
	if !status.Valid() {
		return nil, ErrInvalidTransaction
	}
	if !transactionType.Valid() {
		return nil, ErrInvalidTransaction
	}

	now := time.Now()
	return &Transaction{
		transactionID:        transactionID,
		transactionReference: transactionReference,
		merchantID:           merchantID,
		tokenID:              tokenID,
		currency:             currency,
		requestAmount:        requestAmount,
		status:               status,
		transactionType:      transactionType,
		createdAt:            now,
		updatedAt:            now,
	}, nil
}

// TransactionID トランザクションIDを返す
func (t *Transaction) TransactionID() string {
	return t.transactionID
}

// TransactionReference トランザクション参照を返す
func (t *Transaction) TransactionReference() string {
	return t.transactionReference
}

// TicketNumber チケット番号を返す
func (t *Transaction) TicketNumber() string {
	return t.ticketNumber
}

// SetTicketNumber チケット番号を設定
func (t *Transaction) SetTicketNumber(ticketNumber string) {
	t.ticketNumber = ticketNumber
	t.updatedAt = time.Now()
}

// SaleTicketNumber 元売上のチケット番号を返す（取消以外はnil）
func (t *Transaction) SaleTicketNumber() *string {
	return t.saleTicketNumber
}

// SetSaleTicketNumber 取消を元売上に紐付ける
func (t *Transaction) SetSaleTicketNumber(ticketNumber string) {
	t.saleTicketNumber = &ticketNumber
	t.updatedAt = time.Now()
}

// MerchantID マーチャントIDを返す
func (t *Transaction) MerchantID() string {
	return t.merchantID
}

// TokenID トークンIDを返す
func (t *Transaction) TokenID() string {
	return t.tokenID
}

// Currency 通貨を返す
func (t *Transaction) Currency() string {
	return t.currency
}

// RequestAmount 要求金額を返す
func (t *Transaction) RequestAmount() float64 {
	return t.requestAmount
}

// ApprovedAmount 承認金額を返す
func (t *Transaction) ApprovedAmount() float64 {
	return t.approvedAmount
}

// SetApprovedAmount 承認金額を設定
func (t *Transaction) SetApprovedAmount(v float64) {
	t.approvedAmount = v
	t.updatedAt = time.Now()
}

// PendingAmount 部分取消後の残返金額を返す（未設定の場合はnil）
func (t *Transaction) PendingAmount() *float64 {
	return t.pendingAmount
}

// SetPendingAmount 残返金額を設定
func (t *Transaction) SetPendingAmount(v float64) {
	t.pendingAmount = &v
	t.updatedAt = time.Now()
}

// ProcessorID プロセッサーIDを返す
func (t *Transaction) ProcessorID() string {
	return t.processorID
}

// SetProcessor プロセッサー情報を設定
func (t *Transaction) SetProcessor(processorID, bankName string) {
	t.processorID = processorID
	t.processorBankName = bankName
	t.updatedAt = time.Now()
}

// ProcessorBankName プロセッサー側の銀行名を返す
func (t *Transaction) ProcessorBankName() string {
	return t.processorBankName
}

// ResponseCode レスポンスコードを返す
func (t *Transaction) ResponseCode() string {
	return t.responseCode
}

// ResponseText レスポンステキストを返す
func (t *Transaction) ResponseText() string {
	return t.responseText
}

// SetResponse プロセッサーのレスポンスコード・テキストを設定
func (t *Transaction) SetResponse(code, text string) {
	t.responseCode = code
	t.responseText = text
	t.updatedAt = time.Now()
}

// Status ステータスを返す
func (t *Transaction) Status() TransactionStatus {
	return t.status
}

// UpdateStatus ステータスを更新
func (t *Transaction) UpdateStatus(status TransactionStatus) error {
	if !status.Valid() {
		return ErrInvalidTransaction
	}
	t.status = status
	t.updatedAt = time.Now()
	return nil
}

// TransactionType トランザクションタイプを返す
func (t *Transaction) TransactionType() TransactionType {
	return t.transactionType
}

// SecureID セキュアサービスIDを返す
func (t *Transaction) SecureID() string {
	return t.secureID
}

// SecureService セキュアサービス名を返す
func (t *Transaction) SecureService() string {
	return t.secureService
}

// SetSecureService セキュアサービス識別子を設定
func (t *Transaction) SetSecureService(id, service string) {
	t.secureID = id
	t.secureService = service
	t.updatedAt = time.Now()
}

// Bin BINを返す
func (t *Transaction) Bin() string {
	return t.bin
}

// LastFour カード番号下4桁を返す
func (t *Transaction) LastFour() string {
	return t.lastFour
}

// CardBrand カードブランドを返す
func (t *Transaction) CardBrand() string {
	return t.cardBrand
}

// SetCardInfo カード情報を設定
func (t *Transaction) SetCardInfo(bin, lastFour, brand string) {
	t.bin = bin
	t.lastFour = lastFour
	t.cardBrand = brand
	t.updatedAt = time.Now()
}

// CreatedAt 作成日時を返す
func (t *Transaction) CreatedAt() time.Time {
	return t.createdAt
}

// UpdatedAt 更新日時を返す
func (t *Transaction) UpdatedAt() time.Time {
	return t.updatedAt
}

// MustNewTransaction テスト用ヘルパー: NewTransactionを呼び出し、エラーが発生した場合はpanicする
func MustNewTransaction(
	transactionID string,
	transactionReference string,
	merchantID string,
	tokenID string,
	currency string,
	requestAmount float64,
	status TransactionStatus,
	transactionType TransactionType,
) *Transaction {
	tx, err := NewTransaction(transactionID, transactionReference, merchantID, tokenID, currency, requestAmount, status, transactionType)
	if err != nil {
		panic(err)
	}
	return tx
}
