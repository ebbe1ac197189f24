// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/TildeSecDev/Yuck/internal/model"
)

// AccountRepository はアカウント（クレデンシャルストア）の永続化インターフェース。
type AccountRepository interface {
	// Create はアカウントを作成し、採番されたIDを埋めて返す。
	// emailは正規化済みであることを呼び出し側が保証する。
	Create(ctx context.Context, account *model.Account) error

	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Account, error)

	// FindByEmail は正規化済みemailでアカウントを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
}

// SignupRepository はマーケティング登録レコードの永続化インターフェース。
type SignupRepository interface {
	// Create は登録レコードを作成し、採番されたIDを埋めて返す。
	Create(ctx context.Context, signup *model.Signup) error

	// ListRecent は新しい順に最大limit件の登録レコードを返す。
	ListRecent(ctx context.Context, limit int) ([]*model.Signup, error)
}

// InviteRepository は招待レコードの永続化インターフェース。
type InviteRepository interface {
	// Create は招待レコードを作成する。external_event_idが既存の場合は
	// 重複配信として挿入をスキップする（エラーにしない）。
	Create(ctx context.Context, invite *model.Invite) error

	// ListRecent は発行日時の新しい順に最大limit件の招待レコードを返す。
	ListRecent(ctx context.Context, limit int) ([]*model.Invite, error)
}

// AdminSessionRepository は管理者セッションの永続化インターフェース。
type AdminSessionRepository interface {
	// Create は管理者セッションを作成する。
	Create(ctx context.Context, session *model.AdminSession) error

	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.AdminSession, error)

	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
