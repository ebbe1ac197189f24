package repository

import (
	"testing"
)

// 各Postgresリポジトリが対応するインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ AccountRepository = (*PostgresAccountRepo)(nil)
	var _ SignupRepository = (*PostgresSignupRepo)(nil)
	var _ InviteRepository = (*PostgresInviteRepo)(nil)
	var _ AdminSessionRepository = (*PostgresAdminSessionRepo)(nil)
}

// 各コンストラクタが正しく初期化されることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresAccountRepo(nil) == nil {
		t.Fatal("expected non-nil account repo")
	}
	if NewPostgresSignupRepo(nil) == nil {
		t.Fatal("expected non-nil signup repo")
	}
	if NewPostgresInviteRepo(nil) == nil {
		t.Fatal("expected non-nil invite repo")
	}
	if NewPostgresAdminSessionRepo(nil) == nil {
		t.Fatal("expected non-nil admin session repo")
	}
}
