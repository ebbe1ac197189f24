package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis は共有Redisでウィンドウを管理するLimiter実装。
// 複数インスタンス構成でもキーごとの件数を一元管理できる。
// ウィンドウはキーごとのsorted set（score = UnixNano）で表現する。
type Redis struct {
	client redis.UniversalClient
	window time.Duration
	max    int
	now    func() time.Time
}

// NewRedis はRedisリミッターを生成する。
func NewRedis(client redis.UniversalClient, window time.Duration, max int) *Redis {
	return &Redis{
		client: client,
		window: window,
		max:    max,
		now:    time.Now,
	}
}

// Allow はキーのsorted setを更新し、ウィンドウ内件数が上限以下かを返す。
// prune-append-countはMULTIでまとめて実行する。Redis到達不能時はエラーを返し、
// 判定は呼び出し側に委ねる。
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	now := r.now()
	cutoff := now.Add(-r.window).UnixNano()
	member := strconv.FormatInt(now.UnixNano(), 10)

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey(key), "-inf", strconv.FormatInt(cutoff, 10))
	pipe.ZAdd(ctx, redisKey(key), redis.Z{Score: float64(now.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, redisKey(key))
	pipe.Expire(ctx, redisKey(key), r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit redis unavailable: %w", err)
	}

	return count.Val() <= int64(r.max), nil
}

func redisKey(key string) string {
	return "rl:signup:" + key
}

// compile-time interface check
var _ Limiter = (*Redis)(nil)
