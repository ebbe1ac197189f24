// Package model はドメインモデルを定義する。
package model

import "time"

// Account はメール・パスワードで登録されたアカウントを表す。
// emailは正規化済み（trim + 小文字化）の状態で保持する。
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AdminSession は管理者のサーバーサイドセッションを表す。
// ユーザーセッション（ステートレストークン）とは別の信頼境界として扱う。
type AdminSession struct {
	ID        string
	AdminUser string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Signup はマーケティングサイトのメール登録レコードを表す。
type Signup struct {
	ID        int64
	Email     string
	IP        string
	CreatedAt time.Time
}

// Invite は決済完了イベントに反応して発行される招待レコードを表す。
// Emailは決済イベントから取得できない場合がある（nullable）。
type Invite struct {
	ID              int64
	Email           *string
	Token           string
	ExternalEventID *string
	IssuedAt        time.Time
	Used            bool
}
