package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config アプリケーション全体の設定
type Config struct {
	Backend       BackendConfig
	Checkout      CheckoutConfig
	Listener      ListenerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	OpenTelemetry OpenTelemetryConfig
	Environment   string
}

// BackendConfig マーケットプレイスバックエンドの接続設定
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// CheckoutConfig 決済フローの設定
type CheckoutConfig struct {
	ReturnScheme    string        // ディープリンクのカスタムスキーム
	MaxPollAttempts int           // ステータスポーリングの最大試行回数
	PollInterval    time.Duration // 試行間の固定待機時間
	PollGrace       time.Duration // 初回試行前の猶予（ITN到着待ち）
	BrowserTimeout  time.Duration // 外部ブラウザセッションの待機上限
}

// ListenerConfig リターンURLリスナーの設定
type ListenerConfig struct {
	Host    string
	Port    int
	Enabled bool
}

// DatabaseConfig データベース設定
type DatabaseConfig struct {
	Enabled         bool
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

// AuthConfig セッショントークンの検証設定
type AuthConfig struct {
	SessionToken string // 保存済みのログインセッションJWT
	JWTSecret    string // 検証用のHMACシークレット（空なら署名検証をスキップ）
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
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_URL", "http://localhost:3050"),
			Timeout: getEnvAsDuration("BACKEND_TIMEOUT", 15*time.Second),
		},
		Checkout: CheckoutConfig{
			ReturnScheme:    getEnv("RETURN_SCHEME", "saplayer"),
			MaxPollAttempts: getEnvAsInt("POLL_MAX_ATTEMPTS", 5),
			PollInterval:    getEnvAsDuration("POLL_INTERVAL", 2*time.Second),
			PollGrace:       getEnvAsDuration("POLL_GRACE", 1*time.Second),
			BrowserTimeout:  getEnvAsDuration("BROWSER_TIMEOUT", 5*time.Minute),
		},
		Listener: ListenerConfig{
			Host:    getEnv("LISTENER_HOST", "127.0.0.1"),
			Port:    getEnvAsInt("LISTENER_PORT", 8417),
			Enabled: getEnvAsBool("LISTENER_ENABLED", true),
		},
		Database: DatabaseConfig{
			Enabled:         getEnvAsBool("DB_ENABLED", false),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 3306),
			User:            getEnv("DB_USER", "root"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "saplayer_checkout"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Auth: AuthConfig{
			SessionToken: getEnv("SESSION_TOKEN", ""),
			JWTSecret:    getEnv("JWT_SECRET", ""),
		},
		OpenTelemetry: OpenTelemetryConfig{
			Enabled:         getEnvAsBool("OTEL_ENABLED", false),
			ServiceName:     getEnv("OTEL_SERVICE_NAME", "saplayer-checkout"),
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
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if c.Checkout.ReturnScheme == "" {
		return fmt.Errorf("RETURN_SCHEME is required")
	}
	if c.Checkout.MaxPollAttempts <= 0 {
		return fmt.Errorf("POLL_MAX_ATTEMPTS must be positive")
	}
	if c.Database.Enabled && c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required when DB_ENABLED is set")
	}
	return nil
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

// Address リスナーの待ち受けアドレスを返す
func (c *ListenerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
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
