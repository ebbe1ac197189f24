// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/TildeSecDev/Yuck/internal/model"
	"github.com/TildeSecDev/Yuck/internal/token"
)

// AuthCookieName は認証トークンを保持するCookieの名前。
const AuthCookieName = "auth_token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// accountContextKey はリクエストコンテキストにアカウントを格納するためのキー。
var accountContextKey = contextKey("account")

// AccountFinder はアカウントの検索に必要なインターフェース。
// account.Serviceの部分集合として定義する。
type AccountFinder interface {
	GetByID(ctx context.Context, id int64) (*model.Account, error)
}

// Authenticator は暗号化トークンCookieによる認証ミドルウェアを提供する。
type Authenticator struct {
	codec        *token.Codec
	accounts     AccountFinder
	cookieSecure bool
}

// NewAuthenticator はAuthenticatorを生成する。
func NewAuthenticator(codec *token.Codec, accounts AccountFinder, cookieSecure bool) *Authenticator {
	return &Authenticator{
		codec:        codec,
		accounts:     accounts,
		cookieSecure: cookieSecure,
	}
}

// ResolveAccount はCookieのトークンを検証し、有効ならアカウントを
// リクエストコンテキストに注入するミドルウェアを返す。
// トークンが無い・無効・期限切れの場合も拒否せず、未認証のまま通す。
// 認証を必須とするルートはRequireAuthを後段に配置すること。
func (a *Authenticator) ResolveAccount() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AuthCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := a.codec.Verify(cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			// トークンが有効でもアカウントが削除済みなら未認証扱いにする
			account, err := a.accounts.GetByID(r.Context(), claims.Subject)
			if err != nil {
				slog.Error("failed to resolve account from token",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if account == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), accountContextKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth は認証済みアカウントを必須とするミドルウェアを返す。
// 未認証の場合は401を返し、無効なCookieを削除する。
// ResolveAccountの後段に配置すること。
func (a *Authenticator) RequireAuth() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := AccountFromContext(r.Context()); err != nil {
				// 送られてきたトークンは無効なので削除させる
				if _, cerr := r.Cookie(AuthCookieName); cerr == nil {
					a.ClearAuthCookie(w)
				}
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetAuthCookie は認証トークンをHTTP Only Cookieとして設定する。
// Max-Ageはトークンの有効期限と一致させる。
func (a *Authenticator) SetAuthCookie(w http.ResponseWriter, tokenValue string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    tokenValue,
		Path:     "/",
		MaxAge:   int(a.codec.TTL() / time.Second),
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookie は認証Cookieを削除する。
func (a *Authenticator) ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// AccountFromContext はリクエストコンテキストから認証済みアカウントを取得する。
// ResolveAccountを通過したリクエストでのみ有効。
func AccountFromContext(ctx context.Context) (*model.Account, error) {
	account, ok := ctx.Value(accountContextKey).(*model.Account)
	if !ok || account == nil {
		return nil, fmt.Errorf("account not found in context")
	}
	return account, nil
}

// ContextWithAccount はコンテキストにアカウントを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithAccount(ctx context.Context, account *model.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}
