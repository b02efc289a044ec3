package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	deferredapp "card-gateway/internal/application/deferredoptions"
)

// DeferredHandler 分割払い関連ハンドラー
type DeferredHandler struct {
	deferredService *deferredapp.DeferredOptionsApplicationService
}

// NewDeferredHandler 新しいDeferredHandlerを作成
func NewDeferredHandler(deferredService *deferredapp.DeferredOptionsApplicationService) *DeferredHandler {
	return &DeferredHandler{
		deferredService: deferredService,
	}
}

// GetDeferredOptions 分割払いマトリクス取得ハンドラー
// @Summary 分割払いオプションを取得
// @Description BINに対して利用可能な分割払いマトリクスを返します
// @Tags deferred
// @Produce json
// @Security Bearer
// @Param bin query string true "カードBIN（先頭6桁以上）"
// @Success 200 {object} DeferredOptionsResponse "取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Router /deferred [get]
func (h *DeferredHandler) GetDeferredOptions(c echo.Context) error {
	merchantID, ok := c.Get("merchant_id").(string)
	if !ok || merchantID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "merchant_id not found in token")
	}

	bin := c.QueryParam("bin")
	if len(bin) < 6 {
		return echo.NewHTTPError(http.StatusBadRequest, "bin must be at least 6 digits")
	}

	matrix, err := h.deferredService.Query(c.Request().Context(), merchantID, bin)
	if err != nil {
		return err
	}

	entries := make([]DeferredOption, len(matrix))
	for i, entry := range matrix {
		entries[i] = DeferredOption{
			Type:          entry.Type,
			Months:        entry.Months,
			MonthsOfGrace: entry.MonthsOfGrace,
		}
	}

	return c.JSON(http.StatusOK, DeferredOptionsResponse{
		Bin:     bin,
		Options: entries,
	})
}
