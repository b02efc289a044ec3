package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	chargeapp "card-gateway/internal/application/charge"
)

// ChargeHandler 課金関連ハンドラー
type ChargeHandler struct {
	chargeService *chargeapp.ChargeApplicationService
}

// NewChargeHandler 新しいChargeHandlerを作成
func NewChargeHandler(chargeService *chargeapp.ChargeApplicationService) *ChargeHandler {
	return &ChargeHandler{
		chargeService: chargeService,
	}
}

// Charge 課金ハンドラー
// @Summary 売上（または分割払い）を実行
// @Description トークンに対して課金を実行します
// @Tags charges
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body ChargeRequest true "課金リクエスト"
// @Success 200 {object} ChargeResponse "課金成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 402 {object} ErrorResponse "プロセッサー拒否"
// @Failure 403 {object} ErrorResponse "アンチフラウドによる停止"
// @Router /charges [post]
func (h *ChargeHandler) Charge(c echo.Context) error {
	req, err := bindChargeRequest(c)
	if err != nil {
		return err
	}

	resp, err := h.chargeService.Charge(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toChargeResponse(resp))
}

// Preauth 与信予約ハンドラー
// @Summary 与信予約を実行
// @Description 金額を確保し、後続のキャプチャで確定します
// @Tags charges
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body ChargeRequest true "与信予約リクエスト"
// @Success 200 {object} ChargeResponse "与信予約成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 402 {object} ErrorResponse "プロセッサー拒否"
// @Router /preauth [post]
func (h *ChargeHandler) Preauth(c echo.Context) error {
	req, err := bindChargeRequest(c)
	if err != nil {
		return err
	}

	resp, err := h.chargeService.Preauth(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toChargeResponse(resp))
}

// Capture 売上確定ハンドラー
// @Summary 与信予約を確定
// @Description チケット番号で特定した与信予約を全額または一部確定します
// @Tags charges
// @Accept json
// @Produce json
// @Security Bearer
// @Param ticket_number path string true "与信予約のチケット番号"
// @Param request body CaptureRequest true "売上確定リクエスト"
// @Success 200 {object} ChargeResponse "売上確定成功"
// @Failure 402 {object} ErrorResponse "プロセッサー拒否"
// @Failure 404 {object} ErrorResponse "与信予約が見つからない"
// @Router /charges/{ticket_number}/capture [post]
func (h *ChargeHandler) Capture(c echo.Context) error {
	merchantID, ok := c.Get("merchant_id").(string)
	if !ok || merchantID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "merchant_id not found in token")
	}

	ticketNumber := c.Param("ticket_number")
	if ticketNumber == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "ticket_number is required")
	}

	var reqBody CaptureRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.TransactionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "transaction_id is required")
	}

	req := &chargeapp.CaptureRequest{
		TransactionID: reqBody.TransactionID,
		MerchantID:    merchantID,
		TicketNumber:  ticketNumber,
		Amount:        reqBody.Amount,
	}

	resp, err := h.chargeService.Capture(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toChargeResponse(resp))
}

// bindChargeRequest 課金系リクエストの共通バインド・検証
func bindChargeRequest(c echo.Context) (*chargeapp.ChargeRequest, error) {
	merchantID, ok := c.Get("merchant_id").(string)
	if !ok || merchantID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "merchant_id not found in token")
	}

	var reqBody ChargeRequest
	if err := c.Bind(&reqBody); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.TransactionID == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "transaction_id is required")
	}
	if reqBody.TokenID == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "token_id is required")
	}
	if reqBody.Currency == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "currency is required")
	}

	return &chargeapp.ChargeRequest{
		TransactionID: reqBody.TransactionID,
		MerchantID:    merchantID,
		TokenID:       reqBody.TokenID,
		Currency:      reqBody.Currency,
		Amount: chargeapp.AmountRequest{
			IVA:          reqBody.Amount.IVA,
			SubtotalIVA:  reqBody.Amount.SubtotalIVA,
			SubtotalIVA0: reqBody.Amount.SubtotalIVA0,
			ICE:          reqBody.Amount.ICE,
			ExtraTaxes:   reqBody.Amount.ExtraTaxes,
		},
		Months:            reqBody.Months,
		MonthsOfGrace:     reqBody.MonthsOfGrace,
		DeferredType:      reqBody.DeferredType,
		IsDeferred:        reqBody.IsDeferred,
		IsSubscription:    reqBody.IsSubscription,
		AllowMissingToken: reqBody.AllowMissingToken,
	}, nil
}

// toChargeResponse アプリケーション層のレスポンスをREST表現へ変換
func toChargeResponse(resp *chargeapp.ChargeResponse) ChargeResponse {
	return ChargeResponse{
		TransactionID:  resp.TransactionID,
		TicketNumber:   resp.TicketNumber,
		ResponseCode:   resp.ResponseCode,
		ResponseText:   resp.ResponseText,
		ApprovedAmount: resp.ApprovedAmount,
		CardBrand:      resp.CardBrand,
		Status:         resp.Status,
	}
}
