package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	tokenizationapp "card-gateway/internal/application/tokenization"
)

// TokenHandler トークン化関連ハンドラー
type TokenHandler struct {
	tokenizeService *tokenizationapp.TokenizeApplicationService
}

// NewTokenHandler 新しいTokenHandlerを作成
func NewTokenHandler(tokenizeService *tokenizationapp.TokenizeApplicationService) *TokenHandler {
	return &TokenHandler{
		tokenizeService: tokenizeService,
	}
}

// CreateToken トークン化ハンドラー
// @Summary カード番号をトークン化
// @Description カード番号をプロセッサー発行のトークンに置き換えます
// @Tags tokens
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreateTokenRequest true "トークン化リクエスト"
// @Success 201 {object} CreateTokenResponse "トークン化成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /tokens [post]
func (h *TokenHandler) CreateToken(c echo.Context) error {
	merchantID, ok := c.Get("merchant_id").(string)
	if !ok || merchantID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "merchant_id not found in token")
	}

	var reqBody CreateTokenRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	req := &tokenizationapp.TokenizeRequest{
		MerchantID:    merchantID,
		CardNumber:    reqBody.CardNumber,
		Currency:      reqBody.Currency,
		TotalAmount:   reqBody.TotalAmount,
		SecureID:      reqBody.SecureID,
		SecureService: reqBody.SecureService,
	}

	resp, err := h.tokenizeService.Tokenize(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, CreateTokenResponse{
		TokenID:              resp.TokenID,
		TransactionReference: resp.TransactionReference,
		MaskedCardNumber:     resp.MaskedCardNumber,
		CardBrand:            resp.CardBrand,
	})
}
