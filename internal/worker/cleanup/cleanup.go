// Package cleanup は期限切れデータの自動削除ジョブを提供する。
// 期限切れの管理者セッションと、保持期間（デフォルト180日）を超過した
// マーケティング登録レコードを日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionDeleter は期限切れ管理者セッションの削除に必要なインターフェース。
type SessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// SignupDeleter は古い登録レコードの削除に必要なインターフェース。
type SignupDeleter interface {
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

// CleanupJob は期限切れデータの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	sessions      SessionDeleter
	signups       SignupDeleter
	logger        *slog.Logger
	RetentionDays int // 登録レコードの保持日数（デフォルト: 180）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は180日。
func NewCleanupJob(sessions SessionDeleter, signups SignupDeleter, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessions:      sessions,
		signups:       signups,
		logger:        logger,
		RetentionDays: 180,
	}
}

// Run は期限切れセッションと古い登録レコードを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	expiredSessions, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("failed to delete expired admin sessions",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to delete expired admin sessions: %w", err)
	}

	staleSignups, err := j.signups.DeleteOlderThan(ctx, j.RetentionDays)
	if err != nil {
		j.logger.Error("failed to delete stale signups",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("failed to delete stale signups: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("cleanup job completed",
		slog.Int64("expired_sessions", expiredSessions),
		slog.Int64("stale_signups", staleSignups),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start はクリーンアップジョブを指定間隔で定期実行する。
// 起動直後に1回実行し、以降はintervalごとに実行する。
// コンテキストのキャンセルで停止する（ブロッキング）。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
}
