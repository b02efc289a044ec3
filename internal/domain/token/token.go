package token

import (
	"time"
)

// BinInfo BINから解決したカード発行情報
type BinInfo struct {
	Bank     string
	Brand    string
	Country  string
	CardType string
}

// Token トークン化されたカード提示を表すエンティティ
// 作成後はBIN情報の一度限りの付与を除いて不変
type Token struct {
	id                   string
	maskedCardNumber     string
	bin                  string
	lastFour             string
	currency             string
	totalAmount          float64
	settlementAmount     *float64
	transactionReference string
	binInfo              *BinInfo
	secureID             string
	secureService        string
	createdAt            time.Time
}

// NewToken 新しいTokenエンティティを作成
func NewToken(
	id string,
	maskedCardNumber string,
	bin string,
	lastFour string,
	currency string,
	totalAmount float64,
	transactionReference string,
) (*Token, error) {
	if id == "" {
		return nil, ErrInvalidTokenID
	}
	if len(bin) < 6 {
		return nil, ErrInvalidBin
	}
	if totalAmount < 0 {
		return nil, ErrInvalidAmount
	}
	return &Token{
		id:                   id,
		maskedCardNumber:     maskedCardNumber,
		bin:                  bin,
		lastFour:             lastFour,
		currency:             currency,
		totalAmount:          totalAmount,
		transactionReference: transactionReference,
		createdAt:            time.Now(),
	}, nil
}

// NewPlaceholderToken レガシー呼び出し元向けのゼロ金額プレースホルダーを作成
// トークンレコードが存在しない場合の後方互換経路でのみ使用する
func NewPlaceholderToken(id string, currency string) *Token {
	return &Token{
		id:                   id,
		maskedCardNumber:     "",
		bin:                  "000000",
		lastFour:             "0000",
		currency:             currency,
		totalAmount:          0,
		transactionReference: "",
		createdAt:            time.Now(),
	}
}

// ID トークンIDを返す
func (t *Token) ID() string {
	return t.id
}

// MaskedCardNumber マスク済みカード番号を返す
func (t *Token) MaskedCardNumber() string {
	return t.maskedCardNumber
}

// Bin BINを返す
func (t *Token) Bin() string {
	return t.bin
}

// LastFour カード番号下4桁を返す
func (t *Token) LastFour() string {
	return t.lastFour
}

// Currency 通貨を返す
func (t *Token) Currency() string {
	return t.currency
}

// TotalAmount 要求金額を返す
func (t *Token) TotalAmount() float64 {
	return t.totalAmount
}

// SettlementAmount 決済金額を返す（未設定の場合はnil）
func (t *Token) SettlementAmount() *float64 {
	return t.settlementAmount
}

// SetSettlementAmount 決済金額を設定
func (t *Token) SetSettlementAmount(v float64) {
	t.settlementAmount = &v
}

// TransactionReference トランザクション参照（UUID）を返す
func (t *Token) TransactionReference() string {
	return t.transactionReference
}

// BinInfo BIN情報を返す（未解決の場合はnil）
func (t *Token) BinInfo() *BinInfo {
	return t.binInfo
}

// AttachBinInfo 解決済みのBIN情報を一度だけ付与する
func (t *Token) AttachBinInfo(info BinInfo) error {
	if t.binInfo != nil {
		return ErrBinInfoAlreadySet
	}
	t.binInfo = &info
	return nil
}

// SecureID セキュアサービスIDを返す
func (t *Token) SecureID() string {
	return t.secureID
}

// SecureService セキュアサービス名を返す
func (t *Token) SecureService() string {
	return t.secureService
}

// SetSecureService セキュアサービス識別子を設定
func (t *Token) SetSecureService(id, service string) {
	t.secureID = id
	t.secureService = service
}

// HasSecureIdentity アンチフラウド用の識別子を保持しているかどうかを返す
func (t *Token) HasSecureIdentity() bool {
	return t.secureID != "" && t.secureService != ""
}

// CreatedAt 作成日時を返す
func (t *Token) CreatedAt() time.Time {
	return t.createdAt
}

// MustNewToken テスト用ヘルパー: NewTokenを呼び出し、エラーが発生した場合はpanicする
func MustNewToken(
	id string,
	maskedCardNumber string,
	bin string,
	lastFour string,
	currency string,
	totalAmount float64,
	transactionReference string,
) *Token {
	tk, err := NewToken(id, maskedCardNumber, bin, lastFour, currency, totalAmount, transactionReference)
	if err != nil {
		panic(err)
	}
	return tk
}
