package merchant

import (
	"card-gateway/internal/domain/deferred"
)

// Merchant マーチャント設定エンティティ
// 設定同期は対象外のため読み取り専用の参照データとして扱う
type Merchant struct {
	publicID        string
	name            string
	country         string
	fraudThreshold  float64
	sandboxEnabled  bool
	deferredOptions []deferred.Option
}

// NewMerchant 新しいMerchantエンティティを作成
func NewMerchant(
	publicID string,
	name string,
	country string,
	fraudThreshold float64,
	sandboxEnabled bool,
	deferredOptions []deferred.Option,
) (*Merchant, error) {
	if publicID == "" {
		return nil, ErrInvalidMerchantID
	}
	return &Merchant{
		publicID:        publicID,
		name:            name,
		country:         country,
		fraudThreshold:  fraudThreshold,
		sandboxEnabled:  sandboxEnabled,
		deferredOptions: deferredOptions,
	}, nil
}

// PublicID マーチャント公開IDを返す
func (m *Merchant) PublicID() string {
	return m.publicID
}

// Name マーチャント名を返す
func (m *Merchant) Name() string {
	return m.name
}

// Country マーチャントの国を返す
func (m *Merchant) Country() string {
	return m.country
}

// FraudThreshold 不正スコアの閾値を返す（0は未設定）
func (m *Merchant) FraudThreshold() float64 {
	return m.fraudThreshold
}

// HasFraudScoring 不正スコアリングが設定されているかどうかを返す
func (m *Merchant) HasFraudScoring() bool {
	return m.fraudThreshold > 0
}

// SandboxEnabled サンドボックスが有効かどうかを返す
func (m *Merchant) SandboxEnabled() bool {
	return m.sandboxEnabled
}

// DeferredOptions 分割払いルールセットを返す
func (m *Merchant) DeferredOptions() []deferred.Option {
	return m.deferredOptions
}

// MustNewMerchant テスト用ヘルパー: NewMerchantを呼び出し、エラーが発生した場合はpanicする
func MustNewMerchant(
	publicID string,
	name string,
	country string,
	fraudThreshold float64,
	sandboxEnabled bool,
	deferredOptions []deferred.Option,
) *Merchant {
	m, err := NewMerchant(publicID, name, country, fraudThreshold, sandboxEnabled, deferredOptions)
	if err != nil {
		panic(err)
	}
	return m
}
