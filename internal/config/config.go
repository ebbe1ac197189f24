// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ローカル開発用の安全でないデフォルト値。
// 本番環境では必ず環境変数で上書きすること。フォールバック時はWarnログを出す。
const (
	devSessionSecret = "dev-secret-change-me"
	devAdminUser     = "admin"
	devAdminPass     = "change-me"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string
	DBTimeout   time.Duration

	// Session token
	SessionSecret string
	TokenTTL      time.Duration

	// Admin
	AdminUser          string
	AdminPass          string
	AdminSessionMaxAge int // 管理者セッション有効期間（秒）

	// Stripe webhook
	StripeWebhookSecret string

	// Rate Limit
	SignupRateMax    int           // サインアップ窓あたりの最大リクエスト数
	SignupRateWindow time.Duration // サインアップのスライディングウィンドウ幅
	RateLimitGeneral int           // API全般のレート（req/min/IP）
	RedisAddr        string        // 設定時はRedisバックエンドのリミッターを使用

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// DATABASE_URLのみ必須。シークレット類が未設定の場合は開発用デフォルトに
// フォールバックし、Warnログを出力する（クラッシュはしない）。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("required environment variable is not set: DATABASE_URL")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = devSessionSecret
		slog.Warn("SESSION_SECRET not set, using insecure development default",
			slog.String("env", "SESSION_SECRET"),
		)
	}

	cfg.AdminUser = getEnvString("ADMIN_USER", devAdminUser)
	cfg.AdminPass = os.Getenv("ADMIN_PASS")
	if cfg.AdminPass == "" {
		cfg.AdminPass = devAdminPass
		slog.Warn("ADMIN_PASS not set, using insecure development default",
			slog.String("env", "ADMIN_PASS"),
		)
	}

	cfg.StripeWebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	if cfg.StripeWebhookSecret == "" {
		slog.Warn("STRIPE_WEBHOOK_SECRET not set, webhook events will be trusted without signature verification")
	}

	// Optional fields with defaults
	cfg.DBTimeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 30*time.Minute)
	cfg.AdminSessionMaxAge = getEnvInt("ADMIN_SESSION_MAX_AGE", 86400)
	cfg.SignupRateMax = getEnvInt("SIGNUP_RATE_MAX", 8)
	cfg.SignupRateWindow = getEnvDuration("SIGNUP_RATE_WINDOW", 60*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RedisAddr = getEnvString("REDIS_ADDR", "")
	cfg.ServerPort = getEnvString("SERVER_PORT", "4242")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:4242")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
