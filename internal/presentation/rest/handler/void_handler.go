package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	voidapp "card-gateway/internal/application/void"
)

// VoidHandler 取消関連ハンドラー
type VoidHandler struct {
	voidService *voidapp.VoidApplicationService
}

// NewVoidHandler 新しいVoidHandlerを作成
func NewVoidHandler(voidService *voidapp.VoidApplicationService) *VoidHandler {
	return &VoidHandler{
		voidService: voidService,
	}
}

// Void 取消ハンドラー
// @Summary 売上を取消
// @Description チケット番号で特定した売上を全額または一部取消します
// @Tags charges
// @Accept json
// @Produce json
// @Security Bearer
// @Param ticket_number path string true "売上のチケット番号"
// @Param request body VoidRequest true "取消リクエスト"
// @Success 200 {object} VoidResponse "取消成功"
// @Failure 404 {object} ErrorResponse "売上が見つからない"
// @Failure 409 {object} ErrorResponse "返金可能額超過"
// @Router /charges/{ticket_number} [delete]
func (h *VoidHandler) Void(c echo.Context) error {
	merchantID, ok := c.Get("merchant_id").(string)
	if !ok || merchantID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "merchant_id not found in token")
	}

	ticketNumber := c.Param("ticket_number")
	if ticketNumber == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "ticket_number is required")
	}

	var reqBody VoidRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if reqBody.TransactionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "transaction_id is required")
	}

	req := &voidapp.VoidRequest{
		TransactionID: reqBody.TransactionID,
		MerchantID:    merchantID,
		TicketNumber:  ticketNumber,
		Amount:        reqBody.Amount,
	}

	resp, err := h.voidService.Void(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, VoidResponse{
		TransactionID: resp.TransactionID,
		TicketNumber:  resp.TicketNumber,
		ResponseCode:  resp.ResponseCode,
		ResponseText:  resp.ResponseText,
		VoidedAmount:  resp.VoidedAmount,
		PendingAmount: resp.PendingAmount,
		Partial:       resp.Partial,
		Status:        resp.Status,
	})
}
