package tokenization

// TokenizeRequest トークン化リクエストDTO
type TokenizeRequest struct {
	MerchantID    string
	CardNumber    string
	Currency      string
	TotalAmount   float64
	SecureID      string
	SecureService string
}

// TokenizeResponse トークン化レスポンスDTO
type TokenizeResponse struct {
	TokenID              string
	TransactionReference string
	MaskedCardNumber     string
	CardBrand            string
}
