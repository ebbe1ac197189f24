package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/TildeSecDev/Yuck/internal/metrics"
	"github.com/TildeSecDev/Yuck/internal/middleware"
	"github.com/TildeSecDev/Yuck/internal/model"
	"github.com/TildeSecDev/Yuck/internal/token"
)

// AccountServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	// Create はアカウントを作成する。
	Create(ctx context.Context, email, password string) (*model.Account, error)
	// Authenticate はメール・パスワードでアカウントを認証する。
	Authenticate(ctx context.Context, email, password string) (*model.Account, error)
}

// AuthHandler はアカウント登録・ログイン・セッション関連のHTTPハンドラー。
type AuthHandler struct {
	service AccountServiceInterface
	codec   *token.Codec
	auth    *middleware.Authenticator
	metrics metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AccountServiceInterface, codec *token.Codec, auth *middleware.Authenticator, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		service: service,
		codec:   codec,
		auth:    auth,
		metrics: collector,
	}
}

// credentialsRequest は登録・ログインリクエストのボディ。
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// accountResponse はアカウント情報のAPIレスポンス。
type accountResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Signup はアカウント登録を処理する。
// POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldsError())
		return
	}

	account, err := h.service.Create(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 登録直後からログイン状態にする
	if err := h.issueSession(w, account); err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordSignup()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": accountResponse{ID: account.ID, Email: account.Email},
	})
}

// Login はログインを処理する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldsError())
		return
	}

	account, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordAuthFailure()
		handleServiceError(w, err)
		return
	}

	if err := h.issueSession(w, account); err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordLogin()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"user": accountResponse{ID: account.ID, Email: account.Email},
	})
}

// Logout はセッションCookieを破棄する。
// POST /api/auth/logout
// トークンはステートレスなのでサーバー側の状態はない。Cookieの削除のみ行う。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.ClearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Me は現在のログインアカウント情報を返す。
// GET /api/auth/me
// ResolveAccount→RequireAuthの後段に配置すること。
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSON(w, http.StatusOK, accountResponse{ID: account.ID, Email: account.Email})
}

// Dashboard は認証済みアカウント向けのダッシュボードデータを返す。
// GET /api/dashboard
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	account, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"user":    accountResponse{ID: account.ID, Email: account.Email},
		"message": "welcome back",
	})
}

// issueSession はアカウントのトークンを発行しCookieに設定する。
func (h *AuthHandler) issueSession(w http.ResponseWriter, account *model.Account) error {
	tok, err := h.codec.Issue(account.ID, account.Email)
	if err != nil {
		return err
	}
	h.auth.SetAuthCookie(w, tok)
	return nil
}
