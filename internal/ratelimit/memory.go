package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory はプロセス内メモリでウィンドウを管理するLimiter実装。
// プロセス再起動で全カウンタがリセットされる（単一インスタンスのデモ用途向け、
// 既知の弱点として許容する）。
type Memory struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	window time.Duration
	max    int
	now    func() time.Time
}

// NewMemory はMemoryリミッターを生成する。
// windowはウィンドウ幅、maxはウィンドウ内で許容する最大リクエスト数。
func NewMemory(window time.Duration, max int) *Memory {
	return &Memory{
		windows: make(map[string][]time.Time),
		window:  window,
		max:     max,
		now:     time.Now,
	}
}

// Allow はキーのウィンドウを更新し、上限以下かを返す。
// read-prune-append-checkの一連を単一ロック下で行い、同一キーへの
// 並行リクエストで増分を取りこぼさない。
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-m.window)

	kept := m.windows[key][:0]
	for _, ts := range m.windows[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	m.windows[key] = kept

	return len(kept) <= m.max, nil
}

// compile-time interface check
var _ Limiter = (*Memory)(nil)
