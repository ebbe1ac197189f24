package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/TildeSecDev/Yuck/internal/account"
	"github.com/TildeSecDev/Yuck/internal/metrics"
	"github.com/TildeSecDev/Yuck/internal/middleware"
	"github.com/TildeSecDev/Yuck/internal/model"
	"github.com/TildeSecDev/Yuck/internal/ratelimit"
	"github.com/TildeSecDev/Yuck/internal/repository"
)

// SignupHandler はマーケティングサイトのメール登録を処理するHTTPハンドラー。
// アカウント登録（/api/auth/signup）とは独立した、公開の収集エンドポイント。
type SignupHandler struct {
	repo    repository.SignupRepository
	limiter ratelimit.Limiter
	metrics metrics.MetricsCollector
}

// NewSignupHandler はSignupHandlerを生成する。
func NewSignupHandler(repo repository.SignupRepository, limiter ratelimit.Limiter, collector metrics.MetricsCollector) *SignupHandler {
	return &SignupHandler{
		repo:    repo,
		limiter: limiter,
		metrics: collector,
	}
}

// signupRequest はメール登録リクエストのボディ。
// HPはハニーポットフィールド。人間のフォーム送信では常に空になる。
type signupRequest struct {
	Email string `json:"email"`
	HP    string `json:"hp"`
}

// Capture はメール登録を処理する。
// POST /api/signup
// クライアントIPごとのスライディングウィンドウでレート制限する。
// 制限判定はバリデーションより先に行い、不正入力の連打も窓を消費させる。
func (h *SignupHandler) Capture(w http.ResponseWriter, r *http.Request) {
	ip := middleware.ClientIP(r)

	allowed, err := h.limiter.Allow(r.Context(), ip)
	if err != nil {
		slog.Error("rate limiter backend failed", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
		return
	}
	if !allowed {
		h.metrics.RecordRateLimited()
		slog.Warn("signup rate limit exceeded", slog.String("ip", ip))
		writeAPIErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitedError())
		return
	}

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidEmailError())
		return
	}

	// ハニーポットが埋まっているリクエストはボットとみなす
	if req.HP != "" {
		slog.Warn("honeypot field filled", slog.String("ip", ip))
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewBotDetectedError())
		return
	}

	email := account.NormalizeEmail(req.Email)
	if !account.ValidEmail(email) {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidEmailError())
		return
	}

	signup := &model.Signup{
		Email:     email,
		IP:        ip,
		CreatedAt: time.Now(),
	}
	if err := h.repo.Create(r.Context(), signup); err != nil {
		slog.Error("failed to persist signup", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"id": signup.ID,
	})
}
