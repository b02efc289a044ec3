package handler

// VoidRequest 取消リクエスト
// @Description 取消リクエスト。amount省略時は全額取消となる
type VoidRequest struct {
	TransactionID string   `json:"transaction_id" example:"tx-003"`
	Amount        *float64 `json:"amount,omitempty" example:"40.00"`
}

// VoidResponse 取消レスポンス
// @Description 取消レスポンス
type VoidResponse struct {
	TransactionID string  `json:"transaction_id" example:"tx-003"`
	TicketNumber  string  `json:"ticket_number" example:"189920012"`
	ResponseCode  string  `json:"response_code" example:"000"`
	ResponseText  string  `json:"response_text" example:"Approved"`
	VoidedAmount  float64 `json:"voided_amount" example:"40.00"`
	PendingAmount float64 `json:"pending_amount" example:"72.00"`
	Partial       bool    `json:"partial" example:"true"`
	Status        string  `json:"status" example:"APPROVAL"`
}
