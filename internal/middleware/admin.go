package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/TildeSecDev/Yuck/internal/model"
)

// AdminCookieName は管理者セッションIDを保持するCookieの名前。
const AdminCookieName = "admin_session"

// AdminSessionFinder は管理者セッションの検索に必要なインターフェース。
// repository.AdminSessionRepositoryの部分集合として定義する。
type AdminSessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.AdminSession, error)
}

// NewRequireAdmin はCookieの管理者セッションIDを検証するミドルウェアを返す。
// セッションが無い・無効・期限切れの場合は401を返す。
func NewRequireAdmin(sessions AdminSessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AdminCookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			session, err := sessions.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find admin session",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if session == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
