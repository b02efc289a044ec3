package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config アプリケーション全体の設定
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	Processor     ProcessorConfig
	Antifraud     AntifraudConfig
	RuleEngine    RuleEngineConfig
	BinLookup     BinLookupConfig
	Tax           TaxConfig
	OpenTelemetry OpenTelemetryConfig
	Environment   string
}

// ServerConfig サーバー設定
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig データベース設定
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// JWTConfig JWT設定（マーチャント認証）
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// ProcessorConfig プロセッサー接続設定
type ProcessorConfig struct {
	BaseURL              string
	Timeout              time.Duration
	PublicKeyPEM         string
	AffinityProcessorIDs []string
	SandboxStages        []string
	SandboxFunction      string
	RecoveryTTL          time.Duration
}

// AntifraudConfig アンチフラウドサービス接続設定
type AntifraudConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	ScoreThreshold float64
}

// RuleEngineConfig ルールエンジン接続設定
type RuleEngineConfig struct {
	BaseURL string
	Timeout time.Duration
}

// BinLookupConfig BINルックアップサービス接続設定
type BinLookupConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// TaxConfig 国別IVA税率設定（通貨コード -> 税率）
type TaxConfig struct {
	Rates map[string]float64
}

// OpenTelemetryConfig OpenTelemetry設定
type OpenTelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceExporter   string // "otlp", "stdout"
	MetricsExporter string // "otlp", "stdout"
}

// Load 設定を読み込む
func Load() (*Config, error) {
	// .envファイルを読み込む（存在しない場合は無視）
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "development")

	cfg := &Config{
		Environment: env,
		Server: ServerConfig{
			Port:         getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 3306),
			User:            getEnv("DB_USER", "root"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "gateway_db"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getEnvAsDuration("JWT_EXPIRATION", 24*time.Hour),
			Issuer:     getEnv("JWT_ISSUER", "card-gateway"),
		},
		Processor: ProcessorConfig{
			BaseURL:              getEnv("PROCESSOR_BASE_URL", "https://processor.example.com"),
			Timeout:              getEnvAsDuration("PROCESSOR_TIMEOUT", 30*time.Second),
			PublicKeyPEM:         getEnv("PROCESSOR_PUBLIC_KEY", ""),
			AffinityProcessorIDs: getEnvAsSlice("AFFINITY_PROCESSOR_IDS", nil),
			SandboxStages:        getEnvAsSlice("SANDBOX_STAGES", []string{"development", "staging", "qa"}),
			SandboxFunction:      getEnv("SANDBOX_FUNCTION", "processor-sandbox"),
			RecoveryTTL:          getEnvAsDuration("RECOVERY_TTL", 24*time.Hour),
		},
		Antifraud: AntifraudConfig{
			BaseURL:        getEnv("ANTIFRAUD_BASE_URL", "https://antifraud.example.com"),
			APIKey:         getEnv("ANTIFRAUD_API_KEY", ""),
			Timeout:        getEnvAsDuration("ANTIFRAUD_TIMEOUT", 10*time.Second),
			ScoreThreshold: getEnvAsFloat("FRAUD_SCORE_THRESHOLD", 0.75),
		},
		RuleEngine: RuleEngineConfig{
			BaseURL: getEnv("RULE_ENGINE_BASE_URL", "https://rules.example.com"),
			Timeout: getEnvAsDuration("RULE_ENGINE_TIMEOUT", 10*time.Second),
		},
		BinLookup: BinLookupConfig{
			BaseURL: getEnv("BIN_LOOKUP_BASE_URL", "https://binlist.example.com"),
			APIKey:  getEnv("BIN_LOOKUP_API_KEY", ""),
			Timeout: getEnvAsDuration("BIN_LOOKUP_TIMEOUT", 5*time.Second),
		},
		Tax: TaxConfig{
			Rates: map[string]float64{
				"USD": getEnvAsFloat("TAX_RATE_USD", 0.12),
				"COP": getEnvAsFloat("TAX_RATE_COP", 0.19),
				"PEN": getEnvAsFloat("TAX_RATE_PEN", 0.18),
			},
		},
		OpenTelemetry: OpenTelemetryConfig{
			Enabled:         getEnvAsBool("OTEL_ENABLED", true),
			ServiceName:     getEnv("OTEL_SERVICE_NAME", "card-gateway"),
			ServiceVersion:  getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
			OTLPInsecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			TraceExporter:   getEnv("OTEL_TRACES_EXPORTER", "otlp"),
			MetricsExporter: getEnv("OTEL_METRICS_EXPORTER", "otlp"),
		},
	}

	// 必須設定の検証
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate 設定の検証
func (c *Config) validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	for currency, rate := range c.Tax.Rates {
		if rate < 0 || rate >= 1 {
			return fmt.Errorf("invalid tax rate for %s: %f", currency, rate)
		}
	}
	return nil
}

// IsProduction 本番ステージかどうかを返す
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SandboxEligible 現在のステージがサンドボックス対象かどうかを返す
func (c *Config) SandboxEligible() bool {
	for _, stage := range c.Processor.SandboxStages {
		if stage == c.Environment {
			return true
		}
	}
	return false
}

// DSN データベース接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// getEnv 環境変数を取得（デフォルト値付き）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt 環境変数を整数として取得
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat 環境変数を浮動小数点数として取得
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool 環境変数を真偽値として取得
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration 環境変数を時間として取得
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice 環境変数をカンマ区切りのスライスとして取得
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
