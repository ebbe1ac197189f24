// Package ratelimit はキー単位のスライディングウィンドウ式レート制限を提供する。
// 水平スケール時にバックエンドを差し替えられるよう、呼び出し側はLimiterインターフェース
// のみに依存する。
package ratelimit

import "context"

// Limiter はキー単位のレート制限判定を行うインターフェース。
type Limiter interface {
	// Allow はキーのウィンドウに今回のリクエストを記録した上で、
	// ウィンドウ内の件数が上限以下ならtrueを返す（今回のリクエスト自身も件数に含む）。
	Allow(ctx context.Context, key string) (bool, error)
}
