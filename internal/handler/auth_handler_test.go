package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TildeSecDev/Yuck/internal/metrics"
	"github.com/TildeSecDev/Yuck/internal/middleware"
	"github.com/TildeSecDev/Yuck/internal/model"
	"github.com/TildeSecDev/Yuck/internal/token"
)

// mockAccountService はAccountServiceInterfaceのモック実装。
type mockAccountService struct {
	createFunc       func(ctx context.Context, email, password string) (*model.Account, error)
	authenticateFunc func(ctx context.Context, email, password string) (*model.Account, error)
}

func (m *mockAccountService) Create(ctx context.Context, email, password string) (*model.Account, error) {
	return m.createFunc(ctx, email, password)
}

func (m *mockAccountService) Authenticate(ctx context.Context, email, password string) (*model.Account, error) {
	return m.authenticateFunc(ctx, email, password)
}

// mockFinder はmiddleware.AccountFinderのモック実装。
type mockFinder struct {
	accounts map[int64]*model.Account
}

func (m *mockFinder) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	return m.accounts[id], nil
}

func newTestAuthHandler(t *testing.T, service AccountServiceInterface) *AuthHandler {
	t.Helper()
	codec := token.NewCodec("test-secret", 30*time.Minute)
	auth := middleware.NewAuthenticator(codec, &mockFinder{}, false)
	collector := metrics.NewCollector(prometheus.NewRegistry())
	return NewAuthHandler(service, codec, auth, collector)
}

func authCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AuthCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Signup(t *testing.T) {
	service := &mockAccountService{
		createFunc: func(ctx context.Context, email, password string) (*model.Account, error) {
			return &model.Account{ID: 1, Email: "user@example.com"}, nil
		},
	}
	h := newTestAuthHandler(t, service)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		strings.NewReader(`{"email":"user@example.com","password":"password123"}`))
	rec := httptest.NewRecorder()

	h.Signup(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		OK   bool            `json:"ok"`
		User accountResponse `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.OK || resp.User.ID != 1 || resp.User.Email != "user@example.com" {
		t.Errorf("unexpected response: %+v", resp)
	}

	// 登録直後からセッションCookieが設定される
	cookie := authCookie(t, rec)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected auth cookie to be set")
	}
	if !cookie.HttpOnly {
		t.Error("auth cookie must be HttpOnly")
	}
}

func TestAuthHandler_Signup_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr *model.APIError
		wantStatus int
	}{
		{"必須フィールド欠落", model.NewMissingFieldsError(), http.StatusBadRequest},
		{"無効なメールアドレス", model.NewInvalidEmailError(), http.StatusBadRequest},
		{"弱いパスワード", model.NewWeakPasswordError(), http.StatusBadRequest},
		{"メールアドレス重複", model.NewEmailInUseError(), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockAccountService{
				createFunc: func(ctx context.Context, email, password string) (*model.Account, error) {
					return nil, tt.serviceErr
				},
			}
			h := newTestAuthHandler(t, service)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
				strings.NewReader(`{"email":"x","password":"y"}`))
			rec := httptest.NewRecorder()

			h.Signup(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var resp apiErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp.Code != tt.serviceErr.Code {
				t.Errorf("expected error code %q, got %q", tt.serviceErr.Code, resp.Code)
			}

			if authCookie(t, rec) != nil {
				t.Error("no auth cookie should be set on failure")
			}
		})
	}
}

func TestAuthHandler_Signup_MalformedBody(t *testing.T) {
	h := newTestAuthHandler(t, &mockAccountService{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.Signup(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	service := &mockAccountService{
		authenticateFunc: func(ctx context.Context, email, password string) (*model.Account, error) {
			return &model.Account{ID: 7, Email: "user@example.com"}, nil
		},
	}
	h := newTestAuthHandler(t, service)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"user@example.com","password":"password123"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if authCookie(t, rec) == nil {
		t.Error("expected auth cookie to be set")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	service := &mockAccountService{
		authenticateFunc: func(ctx context.Context, email, password string) (*model.Account, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := newTestAuthHandler(t, service)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"user@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
	if authCookie(t, rec) != nil {
		t.Error("no auth cookie should be set on failure")
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	h := newTestAuthHandler(t, &mockAccountService{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	cookie := authCookie(t, rec)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Error("expected auth cookie to be cleared")
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h := newTestAuthHandler(t, &mockAccountService{})

	account := &model.Account{ID: 3, Email: "me@example.com"}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(middleware.ContextWithAccount(req.Context(), account))
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp accountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != 3 || resp.Email != "me@example.com" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := newTestAuthHandler(t, &mockAccountService{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestAuthHandler_Dashboard(t *testing.T) {
	h := newTestAuthHandler(t, &mockAccountService{})

	account := &model.Account{ID: 3, Email: "me@example.com"}
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req = req.WithContext(middleware.ContextWithAccount(req.Context(), account))
	rec := httptest.NewRecorder()

	h.Dashboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "me@example.com") {
		t.Errorf("expected dashboard payload to include account email, got %s", rec.Body.String())
	}
}
