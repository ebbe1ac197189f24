package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TildeSecDev/Yuck/internal/model"
)

// PostgresSignupRepo はPostgreSQLを使用したマーケティング登録リポジトリ。
type PostgresSignupRepo struct {
	db *sql.DB
}

// NewPostgresSignupRepo はPostgresSignupRepoを生成する。
func NewPostgresSignupRepo(db *sql.DB) *PostgresSignupRepo {
	return &PostgresSignupRepo{db: db}
}

// Create は登録レコードを作成し、採番されたIDをsignupに埋める。
func (r *PostgresSignupRepo) Create(ctx context.Context, signup *model.Signup) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO signups (email, ip, created_at)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		signup.Email, signup.IP, signup.CreatedAt,
	).Scan(&signup.ID)
	if err != nil {
		return fmt.Errorf("failed to insert signup: %w", err)
	}
	return nil
}

// ListRecent は新しい順に最大limit件の登録レコードを返す。
func (r *PostgresSignupRepo) ListRecent(ctx context.Context, limit int) ([]*model.Signup, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, ip, created_at
		 FROM signups
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list signups: %w", err)
	}
	defer rows.Close()

	var signups []*model.Signup
	for rows.Next() {
		s := &model.Signup{}
		if err := rows.Scan(&s.ID, &s.Email, &s.IP, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan signup: %w", err)
		}
		signups = append(signups, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate signups: %w", err)
	}

	return signups, nil
}

// DeleteOlderThan は指定日数より古い登録レコードを削除し、削除件数を返す。
// クリーンアップジョブから使用する。
func (r *PostgresSignupRepo) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM signups WHERE created_at < now() - ($1 || ' days')::interval`,
		days,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old signups: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ SignupRepository = (*PostgresSignupRepo)(nil)
