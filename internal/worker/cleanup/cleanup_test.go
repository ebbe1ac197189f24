package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// mockSessionDeleter はSessionDeleterのモック実装。
type mockSessionDeleter struct {
	called  bool
	deleted int64
	err     error
}

func (m *mockSessionDeleter) DeleteExpired(ctx context.Context) (int64, error) {
	m.called = true
	return m.deleted, m.err
}

// mockSignupDeleter はSignupDeleterのモック実装。
type mockSignupDeleter struct {
	called  bool
	days    int
	deleted int64
	err     error
}

func (m *mockSignupDeleter) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	m.called = true
	m.days = days
	return m.deleted, m.err
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func TestCleanupJob_Run(t *testing.T) {
	var buf bytes.Buffer
	sessions := &mockSessionDeleter{deleted: 3}
	signups := &mockSignupDeleter{deleted: 12}

	job := NewCleanupJob(sessions, signups, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !sessions.called || !signups.called {
		t.Error("expected both deleters to be called")
	}
	if signups.days != 180 {
		t.Errorf("expected default retention 180 days, got %d", signups.days)
	}

	// 完了ログに削除件数が記録される
	var entry map[string]any
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}
	if entry["expired_sessions"] != float64(3) || entry["stale_signups"] != float64(12) {
		t.Errorf("unexpected log entry: %v", entry)
	}
}

func TestCleanupJob_Run_CustomRetention(t *testing.T) {
	var buf bytes.Buffer
	signups := &mockSignupDeleter{}

	job := NewCleanupJob(&mockSessionDeleter{}, signups, newTestLogger(&buf))
	job.RetentionDays = 30

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if signups.days != 30 {
		t.Errorf("expected retention 30 days, got %d", signups.days)
	}
}

func TestCleanupJob_Run_SessionError(t *testing.T) {
	var buf bytes.Buffer
	sessions := &mockSessionDeleter{err: errors.New("db down")}
	signups := &mockSignupDeleter{}

	job := NewCleanupJob(sessions, signups, newTestLogger(&buf))

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error when session deletion fails")
	}
	if signups.called {
		t.Error("signup deletion should not run after session deletion failure")
	}
}

func TestCleanupJob_Run_SignupError(t *testing.T) {
	var buf bytes.Buffer
	signups := &mockSignupDeleter{err: errors.New("db down")}

	job := NewCleanupJob(&mockSessionDeleter{}, signups, newTestLogger(&buf))

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error when signup deletion fails")
	}
}
