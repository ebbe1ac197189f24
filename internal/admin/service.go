// Package admin は管理者認証とサーバーサイドセッション管理を提供する。
// ユーザー認証とは資格情報源・Cookie・信頼境界のすべてを分離する。
package admin

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/TildeSecDev/Yuck/internal/model"
	"github.com/TildeSecDev/Yuck/internal/repository"
)

// Credentials は運用者が設定する管理者の静的資格情報。
type Credentials struct {
	User string
	Pass string
}

// ServiceConfig は管理者セッションの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は管理者認証のビジネスロジックを提供する。
type Service struct {
	creds  Credentials
	repo   repository.AdminSessionRepository
	config ServiceConfig
}

// NewService はServiceを生成する。
func NewService(creds Credentials, repo repository.AdminSessionRepository, config ServiceConfig) *Service {
	return &Service{
		creds:  creds,
		repo:   repo,
		config: config,
	}
}

// Login は設定済み資格情報と照合し、成功時にサーバーサイドセッションを発行する。
// 比較はタイミング攻撃を避けるため定数時間で行う。
// 失敗時はinvalid_credentialsを返す。
func (s *Service) Login(ctx context.Context, user, pass string) (*model.AdminSession, error) {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.creds.User)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.creds.Pass)) == 1
	if !userOK || !passOK {
		return nil, model.NewInvalidCredentialsError()
	}

	now := time.Now()
	session := &model.AdminSession{
		ID:        uuid.New().String(),
		AdminUser: user,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create admin session: %w", err)
	}

	slog.Info("admin logged in", slog.String("admin_user", user))
	return session, nil
}

// Logout はサーバーサイドセッションを破棄する。
// 以降、同じCookieを持つリクエストは匿名として扱われる。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.repo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete admin session: %w", err)
	}

	slog.Info("admin logged out", slog.String("session_id", sessionID))
	return nil
}

// SessionMaxAge はセッション有効期間（秒）を返す。CookieのMax-Age設定用。
func (s *Service) SessionMaxAge() int {
	return s.config.SessionMaxAge
}
