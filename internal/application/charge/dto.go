package charge

// AmountRequest 課金リクエストの税分解DTO
type AmountRequest struct {
	IVA          float64
	SubtotalIVA  float64
	SubtotalIVA0 float64
	ICE          float64
	ExtraTaxes   map[string]float64
}

// ChargeRequest 課金リクエストDTO
// TransactionIDは冪等キーであり、同一IDでの再実行は高々1件のTransactionに収束する
type ChargeRequest struct {
	TransactionID     string
	MerchantID        string
	TokenID           string
	Currency          string
	Amount            AmountRequest
	Months            int
	MonthsOfGrace     int
	DeferredType      string
	IsDeferred        bool
	IsSubscription    bool
	AllowMissingToken bool
}

// CaptureRequest 売上確定リクエストDTO
type CaptureRequest struct {
	TransactionID string
	MerchantID    string
	TicketNumber  string
	Amount        *float64
}

// ChargeResponse 課金系操作のレスポンスDTO
type ChargeResponse struct {
	TransactionID  string
	TicketNumber   string
	ResponseCode   string
	ResponseText   string
	ApprovedAmount float64
	CardBrand      string
	Status         string
}
