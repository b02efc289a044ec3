package rest

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	chargeapp "card-gateway/internal/application/charge"
	deferredapp "card-gateway/internal/application/deferredoptions"
	tokenizationapp "card-gateway/internal/application/tokenization"
	voidapp "card-gateway/internal/application/void"
	"card-gateway/internal/infrastructure/config"
	otelinfra "card-gateway/internal/infrastructure/observability/otel"
	"card-gateway/internal/presentation/rest/handler"
	restmiddleware "card-gateway/internal/presentation/rest/middleware"
)

// Router REST APIルーター
type Router struct {
	echo            *echo.Echo
	tokenHandler    *handler.TokenHandler
	chargeHandler   *handler.ChargeHandler
	voidHandler     *handler.VoidHandler
	deferredHandler *handler.DeferredHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	tokenizeService *tokenizationapp.TokenizeApplicationService,
	chargeService *chargeapp.ChargeApplicationService,
	voidService *voidapp.VoidApplicationService,
	deferredService *deferredapp.DeferredOptionsApplicationService,
) (*Router, error) {
	e := echo.New()

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// エラーハンドリングミドルウェアで処理される
	}

	// ミドルウェアの設定
	setupMiddleware(e, cfg, logger, metrics)

	// ハンドラーの作成
	tokenHandler := handler.NewTokenHandler(tokenizeService)
	chargeHandler := handler.NewChargeHandler(chargeService)
	voidHandler := handler.NewVoidHandler(voidService)
	deferredHandler := handler.NewDeferredHandler(deferredService)

	// ルーティングの設定
	setupRoutes(e, cfg, logger, tokenHandler, chargeHandler, voidHandler, deferredHandler)

	return &Router{
		echo:            e,
		tokenHandler:    tokenHandler,
		chargeHandler:   chargeHandler,
		voidHandler:     voidHandler,
		deferredHandler: deferredHandler,
	}, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	// リカバリーミドルウェア
	e.Use(middleware.Recover())

	// CORS設定
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"}, // 本番環境では適切に設定
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// リクエストIDの設定
	e.Use(middleware.RequestID())

	// セキュリティヘッダー
	e.Use(restmiddleware.SecurityHeadersMiddleware())

	// トレーシングミドルウェア
	e.Use(restmiddleware.TracingMiddleware())

	// メトリクスミドルウェア
	e.Use(restmiddleware.MetricsMiddleware(metrics))

	// ログミドルウェア
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// エラーハンドリングミドルウェア
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	logger *otelinfra.Logger,
	tokenHandler *handler.TokenHandler,
	chargeHandler *handler.ChargeHandler,
	voidHandler *handler.VoidHandler,
	deferredHandler *handler.DeferredHandler,
) {
	// API v1グループ
	api := e.Group("/v1")

	// 認証が必要なエンドポイント
	authGroup := api.Group("", restmiddleware.AuthMiddleware(&cfg.JWT, logger))

	// トークン化エンドポイント
	authGroup.POST("/tokens", tokenHandler.CreateToken)

	// 課金系エンドポイント
	authGroup.POST("/charges", chargeHandler.Charge)
	authGroup.POST("/preauth", chargeHandler.Preauth)
	authGroup.POST("/charges/:ticket_number/capture", chargeHandler.Capture)
	authGroup.DELETE("/charges/:ticket_number", voidHandler.Void)

	// 分割払いオプションエンドポイント
	authGroup.GET("/deferred", deferredHandler.GetDeferredOptions)

	// ヘルスチェックエンドポイント（認証不要）
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// Shutdown サーバーをシャットダウン
func (r *Router) Shutdown() error {
	return r.echo.Close()
}
