package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/TildeSecDev/Yuck/internal/metrics"
	"github.com/TildeSecDev/Yuck/internal/middleware"
	"github.com/TildeSecDev/Yuck/internal/model"
	"github.com/TildeSecDev/Yuck/internal/ratelimit"
	"github.com/TildeSecDev/Yuck/internal/repository"
	"github.com/TildeSecDev/Yuck/internal/token"
)

// healthCheckTimeout は/healthのDB疎通確認に適用する上限時間。
const healthCheckTimeout = 2 * time.Second

// Pinger はヘルスチェックのDB疎通確認に必要なインターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator      *middleware.Authenticator
	AdminSessionFinder middleware.AdminSessionFinder
	RateLimiter        *middleware.RateLimiter
	CORSAllowedOrigin  string
	Logger             *slog.Logger

	// 認証
	AccountService AccountServiceInterface
	TokenCodec     *token.Codec

	// マーケティング登録
	SignupRepo    repository.SignupRepository
	SignupLimiter ratelimit.Limiter

	// 管理者
	AdminService AdminServiceInterface
	InviteRepo   repository.InviteRepository
	CookieSecure bool

	// Webhook
	InviteIssuer  InviteIssuer
	WebhookSecret string

	// 運用系
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer
	DB       Pinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Logging
//
// 認証はルートグループごとに適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AccountService, deps.TokenCodec, deps.Authenticator, deps.Metrics)
	signupHandler := NewSignupHandler(deps.SignupRepo, deps.SignupLimiter, deps.Metrics)
	adminHandler := NewAdminHandler(deps.AdminService, deps.SignupRepo, deps.InviteRepo, deps.CookieSecure)
	webhookHandler := NewWebhookHandler(deps.InviteIssuer, deps.WebhookSecret, deps.Metrics)

	// APIルート: IPごとの全般レート制限を適用
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.Middleware())

		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)

			// 認証必須ルート
			r.Group(func(r chi.Router) {
				r.Use(deps.Authenticator.ResolveAccount())
				r.Use(deps.Authenticator.RequireAuth())
				r.Get("/me", authHandler.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.Authenticator.ResolveAccount())
			r.Use(deps.Authenticator.RequireAuth())
			r.Get("/api/dashboard", authHandler.Dashboard)
		})

		// メール登録（専用のスライディングウィンドウ制限はハンドラー内で適用）
		r.Post("/api/signup", signupHandler.Capture)
	})

	// 管理者ルート
	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", adminHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRequireAdmin(deps.AdminSessionFinder))
			r.Post("/logout", adminHandler.Logout)
			r.Get("/signups", adminHandler.ListSignups)
			r.Get("/invites", adminHandler.ListInvites)
		})
	})

	// Webhook（署名検証はハンドラー内で行う）
	r.Post("/webhook/stripe", webhookHandler.HandleStripe)

	// 運用系
	r.Get("/health", newHealthHandler(deps.DB))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	return r
}

// newHealthHandler はDB疎通確認つきのヘルスチェックハンドラーを返す。
func newHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			writeAPIErrorResponse(w, http.StatusServiceUnavailable, model.NewInternalError())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}
