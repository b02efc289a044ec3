package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"card-gateway/internal/application/tokenization"
	"card-gateway/internal/domain/antifraud"
	"card-gateway/internal/domain/merchant"
	"card-gateway/internal/domain/processor"
	"card-gateway/internal/domain/service"
	"card-gateway/internal/domain/token"
	"card-gateway/internal/domain/transaction"
	otelinfra "card-gateway/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// エラーハンドリング
			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	// プロセッサーの構造化された拒否はコード付きで返す
	if procErr, ok := processor.AsProcessorError(err); ok {
		logger.Warn(ctx, "Processor declined", map[string]interface{}{
			"response_code": procErr.Code,
			"response_text": procErr.Text,
		})
		return c.JSON(http.StatusPaymentRequired, ErrorResponse{
			Error:   "processor_declined",
			Message: procErr.Text,
			Code:    procErr.Code,
		})
	}

	// アンチフラウドによる停止
	if blockErr, ok := antifraud.AsBlockError(err); ok {
		logger.Warn(ctx, "Transaction blocked by antifraud", map[string]interface{}{
			"workflow": blockErr.WorkflowName,
			"decision": blockErr.DecisionName,
		})
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "transaction_blocked",
			Message: blockErr.Reason,
		})
	}

	// ドメインエラーの判定と処理
	if errors.Is(err, tokenization.ErrInvalidCardNumber) {
		logger.Warn(ctx, "Invalid card number", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_card_number",
			Message: err.Error(),
		})
	}

	if errors.Is(err, token.ErrTokenNotFound) {
		logger.Warn(ctx, "Token not found", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "token_not_found",
			Message: err.Error(),
		})
	}

	if errors.Is(err, merchant.ErrMerchantNotFound) {
		logger.Warn(ctx, "Merchant not found", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "merchant_not_found",
			Message: err.Error(),
		})
	}

	if errors.Is(err, transaction.ErrTransactionNotFound) {
		logger.Warn(ctx, "Transaction not found", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "transaction_not_found",
			Message: err.Error(),
		})
	}

	if errors.Is(err, transaction.ErrInvalidTransactionID) {
		logger.Warn(ctx, "Invalid transaction id", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_transaction_id",
			Message: err.Error(),
		})
	}

	if errors.Is(err, service.ErrNothingToRefund) {
		logger.Warn(ctx, "Nothing to refund", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "nothing_to_refund",
			Message: err.Error(),
		})
	}

	if errors.Is(err, service.ErrRefundExceedsBalance) {
		logger.Warn(ctx, "Refund exceeds balance", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "refund_exceeds_balance",
			Message: err.Error(),
		})
	}

	if errors.Is(err, service.ErrPartialVoidUnsupportedCurrency) {
		logger.Warn(ctx, "Partial void unsupported currency", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "partial_void_unsupported_currency",
			Message: err.Error(),
		})
	}

	if errors.Is(err, processor.ErrEmptyTicketNumber) {
		logger.Warn(ctx, "Processor returned empty ticket number", map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "processor_invalid_response",
			Message: err.Error(),
		})
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message := ""
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
