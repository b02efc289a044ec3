package handler

// AmountRequest 税分解された金額
// @Description 税分解された金額。合計はサーバー側で導出される
type AmountRequest struct {
	IVA          float64            `json:"iva" example:"12.00"`
	SubtotalIVA  float64            `json:"subtotal_iva" example:"100.00"`
	SubtotalIVA0 float64            `json:"subtotal_iva0" example:"0"`
	ICE          float64            `json:"ice,omitempty" example:"0"`
	ExtraTaxes   map[string]float64 `json:"extra_taxes,omitempty"`
}

// ChargeRequest 課金リクエスト
// @Description 課金・与信予約リクエスト。transaction_idは冪等キーとして扱われる
type ChargeRequest struct {
	TransactionID     string        `json:"transaction_id" example:"tx-001"`
	TokenID           string        `json:"token_id" example:"tok_0123456789"`
	Currency          string        `json:"currency" example:"USD"`
	Amount            AmountRequest `json:"amount"`
	Months            int           `json:"months,omitempty" example:"6"`
	MonthsOfGrace     int           `json:"months_of_grace,omitempty" example:"0"`
	DeferredType      string        `json:"deferred_type,omitempty" example:"01"`
	IsDeferred        bool          `json:"is_deferred,omitempty"`
	IsSubscription    bool          `json:"is_subscription,omitempty"`
	AllowMissingToken bool          `json:"allow_missing_token,omitempty"`
}

// CaptureRequest 売上確定リクエスト
// @Description 売上確定リクエスト。amount省略時は承認金額全額を確定する
type CaptureRequest struct {
	TransactionID string   `json:"transaction_id" example:"tx-002"`
	Amount        *float64 `json:"amount,omitempty" example:"60.50"`
}

// ChargeResponse 課金レスポンス
// @Description 課金レスポンス
type ChargeResponse struct {
	TransactionID  string  `json:"transaction_id" example:"tx-001"`
	TicketNumber   string  `json:"ticket_number" example:"189920011"`
	ResponseCode   string  `json:"response_code" example:"000"`
	ResponseText   string  `json:"response_text" example:"Approved"`
	ApprovedAmount float64 `json:"approved_amount" example:"112.00"`
	CardBrand      string  `json:"card_brand,omitempty" example:"VISA"`
	Status         string  `json:"status" example:"APPROVAL"`
}
