package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TildeSecDev/Yuck/internal/model"
)

// mockAdminSessionFinder はAdminSessionFinderのモック実装。
type mockAdminSessionFinder struct {
	sessions map[string]*model.AdminSession
	err      error
}

func (m *mockAdminSessionFinder) FindByID(ctx context.Context, id string) (*model.AdminSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sessions[id], nil
}

func adminOKHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

func TestRequireAdmin_ValidSession(t *testing.T) {
	finder := &mockAdminSessionFinder{sessions: map[string]*model.AdminSession{
		"sess-1": {ID: "sess-1", AdminUser: "admin", ExpiresAt: time.Now().Add(time.Hour)},
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/signups", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()

	NewRequireAdmin(finder)(adminOKHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestRequireAdmin_NoCookie(t *testing.T) {
	finder := &mockAdminSessionFinder{sessions: map[string]*model.AdminSession{}}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/signups", nil)
	rec := httptest.NewRecorder()

	NewRequireAdmin(finder)(adminOKHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAdmin_UnknownSession(t *testing.T) {
	finder := &mockAdminSessionFinder{sessions: map[string]*model.AdminSession{}}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/signups", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: "no-such-session"})
	rec := httptest.NewRecorder()

	NewRequireAdmin(finder)(adminOKHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAdmin_FinderError(t *testing.T) {
	finder := &mockAdminSessionFinder{err: errors.New("db down")}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/signups", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: "sess-1"})
	rec := httptest.NewRecorder()

	NewRequireAdmin(finder)(adminOKHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}
