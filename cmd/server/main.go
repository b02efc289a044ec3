package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	antifraudapp "card-gateway/internal/application/antifraud"
	chargeapp "card-gateway/internal/application/charge"
	deferredapp "card-gateway/internal/application/deferredoptions"
	tokenizationapp "card-gateway/internal/application/tokenization"
	voidapp "card-gateway/internal/application/void"
	"card-gateway/internal/domain/service"
	antifraudinfra "card-gateway/internal/infrastructure/antifraud"
	binlookupinfra "card-gateway/internal/infrastructure/binlookup"
	"card-gateway/internal/infrastructure/config"
	otelinfra "card-gateway/internal/infrastructure/observability/otel"
	"card-gateway/internal/infrastructure/persistence/mysql"
	processorinfra "card-gateway/internal/infrastructure/processor"
	ruleengineinfra "card-gateway/internal/infrastructure/ruleengine"
	"card-gateway/internal/presentation/rest"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	tracer := otelinfra.Tracer("card-gateway")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("card-gateway")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	// データベース接続の初期化
	db, err := mysql.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// リポジトリの初期化
	merchantRepo := mysql.NewMerchantRepository(db)
	tokenRepo := mysql.NewTokenRepository(db)
	transactionRepo := mysql.NewTransactionRepository(db)
	chargeRecordRepo := mysql.NewChargeRecordRepository(db)
	recoveryRepo := mysql.NewRecoveryRepository(db)

	// トランザクションマネージャーの初期化
	txManager := mysql.NewTransactionManager(db)

	// 外部サービスクライアントの初期化
	ruleEngineClient := ruleengineinfra.NewHTTPClient(&cfg.RuleEngine)
	binLookupClient := binlookupinfra.NewHTTPClient(&cfg.BinLookup)
	antifraudClient := antifraudinfra.NewHTTPClient(&cfg.Antifraud)

	// プロセッサークライアントの初期化
	codec, err := processorinfra.NewCodec(cfg.Processor.PublicKeyPEM)
	if err != nil {
		log.Fatalf("Failed to create processor codec: %v", err)
	}
	liveClient := processorinfra.NewLiveClient(
		&http.Client{Timeout: cfg.Processor.Timeout},
		codec,
		cfg.Processor.BaseURL,
		recoveryRepo,
		cfg.Processor.RecoveryTTL,
		logger,
		metrics,
	)
	sandboxClient := processorinfra.NewSandboxClient(ruleEngineClient, cfg.Processor.SandboxFunction)

	// ドメインサービスの初期化
	amountResolver := service.NewAmountResolver(cfg.Tax.Rates, cfg.Processor.AffinityProcessorIDs)
	matrixBuilder := service.NewDeferredMatrixBuilder()
	voidLedger := service.NewPartialVoidLedger()

	// アプリケーションサービスの初期化
	fraudGate := antifraudapp.NewFraudGateApplicationService(
		antifraudClient,
		cfg.Antifraud.ScoreThreshold,
		logger,
		metrics,
	)

	tokenizeAppService := tokenizationapp.NewTokenizeApplicationService(
		tokenRepo,
		liveClient,
		binLookupClient,
		logger,
		metrics,
	)

	chargeAppService := chargeapp.NewChargeApplicationService(
		merchantRepo,
		tokenRepo,
		transactionRepo,
		chargeRecordRepo,
		ruleEngineClient,
		binLookupClient,
		fraudGate,
		amountResolver,
		liveClient,
		sandboxClient,
		cfg.SandboxEligible(),
		cfg.Processor.RecoveryTTL,
		logger,
		metrics,
	)

	voidAppService := voidapp.NewVoidApplicationService(
		merchantRepo,
		transactionRepo,
		voidLedger,
		txManager,
		liveClient,
		sandboxClient,
		cfg.SandboxEligible(),
		logger,
		metrics,
	)

	deferredAppService := deferredapp.NewDeferredOptionsApplicationService(
		merchantRepo,
		binLookupClient,
		matrixBuilder,
		logger,
	)

	// REST APIルーターの初期化
	router, err := rest.NewRouter(
		cfg,
		logger,
		metrics,
		tokenizeAppService,
		chargeAppService,
		voidAppService,
		deferredAppService,
	)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	// サーバーアドレスの設定
	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// REST APIサーバーを別ゴルーチンで起動
	go func() {
		log.Printf("REST API server starting on %s", address)
		if err := router.Start(address); err != nil {
			log.Printf("REST API server error: %v", err)
		}
	}()

	// シグナルを待機
	<-quit
	log.Println("Shutting down server...")

	// グレースフルシャットダウン
	if err := router.Shutdown(); err != nil {
		log.Printf("Error shutting down REST API server: %v", err)
	}

	log.Println("Server stopped")
}
