// Package account はアカウントの作成・認証・参照のビジネスロジックを提供する。
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/TildeSecDev/Yuck/internal/model"
	"github.com/TildeSecDev/Yuck/internal/repository"
)

// bcryptCost はパスワードハッシュのコストファクタ。
// オフライン総当たりに耐えるため意図的に高めに設定している。
const bcryptCost = 12

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 8

// emailPattern は local@domain.tld の基本形のみを検証する。
// これ以上のポリシー（漏洩リスト照合、確認メール等）はスコープ外。
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service はアカウントに関するビジネスロジックを提供する。
type Service struct {
	repo repository.AccountRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.AccountRepository) *Service {
	return &Service{repo: repo}
}

// NormalizeEmail はメールアドレスを正規化する（trim + 小文字化）。
// 大文字小文字や前後空白のみ異なる登録は同一アカウントとして衝突させる。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail はメールアドレスが基本形を満たすかを返す。
// 正規化済みの値を渡すこと。
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Create はアカウントを作成する。
// email・passwordの検証に失敗した場合はAPIError（validation）、
// メールアドレス重複の場合はAPIError（conflict）を返す。
func (s *Service) Create(ctx context.Context, email, password string) (*model.Account, error) {
	if email == "" || password == "" {
		return nil, model.NewMissingFieldsError()
	}

	normalized := NormalizeEmail(email)
	if !emailPattern.MatchString(normalized) {
		return nil, model.NewInvalidEmailError()
	}
	if len(password) < minPasswordLength {
		return nil, model.NewWeakPasswordError()
	}

	// 事前チェック。同時登録のすり抜けはUNIQUE制約がバックストップする。
	existing, err := s.repo.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailInUseError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acct := &model.Account{
		Email:        normalized,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, acct); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewEmailInUseError()
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("account created",
		slog.Int64("account_id", acct.ID),
		slog.String("email", acct.Email),
	)

	return acct, nil
}

// Authenticate はemail・passwordの組を検証してアカウントを返す。
// アカウント不在とパスワード不一致は区別せず、同一のinvalid_credentialsを返す。
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.Account, error) {
	if email == "" || password == "" {
		return nil, model.NewMissingFieldsError()
	}

	acct, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if acct == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	return acct, nil
}

// GetByID は指定IDのアカウントを取得する。見つからない場合はnilを返す
// （不在はミドルウェアの再解決で想定されるケースのためエラーにしない）。
func (s *Service) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	return s.repo.FindByID(ctx, id)
}

// GetByEmail は正規化したemailでアカウントを取得する。見つからない場合はnilを返す。
func (s *Service) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return s.repo.FindByEmail(ctx, NormalizeEmail(email))
}
