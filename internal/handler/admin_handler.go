package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/TildeSecDev/Yuck/internal/middleware"
	"github.com/TildeSecDev/Yuck/internal/model"
	"github.com/TildeSecDev/Yuck/internal/repository"
)

// adminListLimit は管理画面の一覧で返す最大件数。
const adminListLimit = 1000

// AdminServiceInterface は管理者ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	// Login は管理者クレデンシャルを検証しセッションを作成する。
	Login(ctx context.Context, user, pass string) (*model.AdminSession, error)
	// Logout はセッションを破棄する。
	Logout(ctx context.Context, sessionID string) error
	// SessionMaxAge はセッションCookieの有効期間（秒）を返す。
	SessionMaxAge() int
}

// AdminHandler は管理者向けのHTTPハンドラー。
type AdminHandler struct {
	service      AdminServiceInterface
	signups      repository.SignupRepository
	invites      repository.InviteRepository
	cookieSecure bool
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface, signups repository.SignupRepository, invites repository.InviteRepository, cookieSecure bool) *AdminHandler {
	return &AdminHandler{
		service:      service,
		signups:      signups,
		invites:      invites,
		cookieSecure: cookieSecure,
	}
}

// adminLoginRequest は管理者ログインリクエストのボディ。
type adminLoginRequest struct {
	User string `json:"user"`
	Pass string `json:"pass"`
}

// signupRow は登録レコードのAPIレスポンス。
type signupRow struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}

// inviteRow は招待レコードのAPIレスポンス。
type inviteRow struct {
	ID              int64     `json:"id"`
	Email           *string   `json:"email"`
	Token           string    `json:"token"`
	ExternalEventID *string   `json:"external_event_id"`
	IssuedAt        time.Time `json:"issued_at"`
	Used            bool      `json:"used"`
}

// Login は管理者ログインを処理する。
// POST /admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldsError())
		return
	}

	session, err := h.service.Login(r.Context(), req.User, req.Pass)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    session.ID,
		Path:     "/",
		MaxAge:   h.service.SessionMaxAge(),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Logout は管理者セッションを破棄する。
// POST /admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.AdminCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout admin", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// ListSignups はメール登録レコードを新しい順に返す。
// GET /admin/signups
func (h *AdminHandler) ListSignups(w http.ResponseWriter, r *http.Request) {
	signups, err := h.signups.ListRecent(r.Context(), adminListLimit)
	if err != nil {
		slog.Error("failed to list signups", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
		return
	}

	rows := make([]signupRow, len(signups))
	for i, s := range signups {
		rows[i] = signupRow{ID: s.ID, Email: s.Email, IP: s.IP, CreatedAt: s.CreatedAt}
	}
	writeJSON(w, http.StatusOK, rows)
}

// ListInvites は招待レコードを新しい順に返す。
// GET /admin/invites
func (h *AdminHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := h.invites.ListRecent(r.Context(), adminListLimit)
	if err != nil {
		slog.Error("failed to list invites", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
		return
	}

	rows := make([]inviteRow, len(invites))
	for i, inv := range invites {
		rows[i] = inviteRow{
			ID:              inv.ID,
			Email:           inv.Email,
			Token:           inv.Token,
			ExternalEventID: inv.ExternalEventID,
			IssuedAt:        inv.IssuedAt,
			Used:            inv.Used,
		}
	}
	writeJSON(w, http.StatusOK, rows)
}
