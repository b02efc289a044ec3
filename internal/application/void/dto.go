package void

// VoidRequest 取消リクエストDTO
// Amountがnilの場合は全額取消として扱う
type VoidRequest struct {
	TransactionID string
	MerchantID    string
	TicketNumber  string
	Amount        *float64
}

// VoidResponse 取消レスポンスDTO
type VoidResponse struct {
	TransactionID string
	TicketNumber  string
	ResponseCode  string
	ResponseText  string
	VoidedAmount  float64
	PendingAmount float64
	Partial       bool
	Status        string
}
