package processor

import (
	"card-gateway/internal/domain/amount"
)

// Request プロセッサーへ送信するリクエストペイロード
type Request struct {
	TransactionReference string            `json:"transaction_reference"`
	MerchantID           string            `json:"merchant_identifier"`
	ProcessorID          string            `json:"processor_id"`
	TokenID              string            `json:"transaction_token,omitempty"`
	TicketNumber         string            `json:"ticket_number,omitempty"`
	Currency             string            `json:"currency_code"`
	Amount               amount.WireAmount `json:"transaction_amount"`
	Months               int               `json:"months,omitempty"`
	MonthsOfGrace        int               `json:"grace_months,omitempty"`
	DeferredType         string            `json:"type_of_deferred,omitempty"`
	CardBrand            string            `json:"payment_brand,omitempty"`
	IsSubscription       bool              `json:"is_subscription,omitempty"`
}

// Response プロセッサーからのレスポンスボディ
// 意味的な検証（チケット番号の非空など）は呼び出し元の責務
type Response struct {
	ResponseCode       string             `json:"response_code"`
	ResponseText       string             `json:"response_text"`
	TicketNumber       string             `json:"ticket_number"`
	TransactionID      string             `json:"transaction_id"`
	ApprovedAmount     string             `json:"approved_amount,omitempty"`
	RecapNumber        string             `json:"recap,omitempty"`
	TransactionDetails TransactionDetails `json:"transaction_details"`
}

// TransactionDetails レスポンス内の取引詳細
type TransactionDetails struct {
	ApprovalCode      string `json:"approvalCode"`
	BinCard           string `json:"binCard"`
	CardHolderName    string `json:"cardHolderName"`
	CardType          string `json:"cardType"`
	LastFourDigits    string `json:"lastFourDigitsOfCard"`
	MerchantName      string `json:"merchantName"`
	ProcessorBankName string `json:"processorBankName"`
	IsDeferred        string `json:"isDeferred"`
}
