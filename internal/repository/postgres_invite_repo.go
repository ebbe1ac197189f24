package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TildeSecDev/Yuck/internal/model"
)

// PostgresInviteRepo はPostgreSQLを使用した招待リポジトリ。
type PostgresInviteRepo struct {
	db *sql.DB
}

// NewPostgresInviteRepo はPostgresInviteRepoを生成する。
func NewPostgresInviteRepo(db *sql.DB) *PostgresInviteRepo {
	return &PostgresInviteRepo{db: db}
}

// Create は招待レコードを作成する。
// external_event_idにUNIQUE制約を持たせ、Webhookの重複配信では
// ON CONFLICT DO NOTHINGで挿入をスキップする（再配信は冪等）。
func (r *PostgresInviteRepo) Create(ctx context.Context, invite *model.Invite) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invites (email, token, external_event_id, issued_at, used)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (external_event_id) DO NOTHING`,
		invite.Email, invite.Token, invite.ExternalEventID, invite.IssuedAt, invite.Used,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invite: %w", err)
	}
	return nil
}

// ListRecent は発行日時の新しい順に最大limit件の招待レコードを返す。
func (r *PostgresInviteRepo) ListRecent(ctx context.Context, limit int) ([]*model.Invite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, token, external_event_id, issued_at, used
		 FROM invites
		 ORDER BY issued_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	defer rows.Close()

	var invites []*model.Invite
	for rows.Next() {
		inv := &model.Invite{}
		if err := rows.Scan(&inv.ID, &inv.Email, &inv.Token, &inv.ExternalEventID, &inv.IssuedAt, &inv.Used); err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invites: %w", err)
	}

	return invites, nil
}

// compile-time interface check
var _ InviteRepository = (*PostgresInviteRepo)(nil)
