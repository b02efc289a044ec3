package handler

// CreateTokenRequest トークン化リクエスト
// @Description トークン化リクエスト
type CreateTokenRequest struct {
	CardNumber    string  `json:"card_number" example:"4111111111111111"`
	Currency      string  `json:"currency" example:"USD"`
	TotalAmount   float64 `json:"total_amount" example:"112.00"`
	SecureID      string  `json:"secure_id,omitempty" example:"secure-001"`
	SecureService string  `json:"secure_service,omitempty" example:"3ds"`
}

// CreateTokenResponse トークン化レスポンス
// @Description トークン化レスポンス
type CreateTokenResponse struct {
	TokenID              string `json:"token_id" example:"tok_0123456789"`
	TransactionReference string `json:"transaction_reference" example:"9f1b..."`
	MaskedCardNumber     string `json:"masked_card_number" example:"411111XXXXXX1111"`
	CardBrand            string `json:"card_brand,omitempty" example:"VISA"`
}
