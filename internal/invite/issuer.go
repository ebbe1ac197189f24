// Package invite は決済完了イベントに反応した招待トークンの発行を提供する。
package invite

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/TildeSecDev/Yuck/internal/model"
	"github.com/TildeSecDev/Yuck/internal/repository"
)

// tokenPrefix は招待トークンの接頭辞。
const tokenPrefix = "invite_"

// tokenLength は接頭辞を除くランダム部の文字数。
const tokenLength = 8

// tokenCharset はトークンのランダム部に使用する文字集合（base36）。
const tokenCharset = "0123456789abcdefghijklmnopqrstuvwxyz"

// Issuer は招待レコードの発行を行う。
type Issuer struct {
	repo    repository.InviteRepository
	timeout time.Duration
}

// NewIssuer はIssuerを生成する。
// timeoutは永続化呼び出しに適用する上限時間。
func NewIssuer(repo repository.InviteRepository, timeout time.Duration) *Issuer {
	return &Issuer{
		repo:    repo,
		timeout: timeout,
	}
}

// Issue は招待レコードを発行して永続化する。
// emailは決済イベントから取得できなかった場合nil。
// externalEventIDが重複する再配信イベントでは挿入がスキップされる（冪等）。
func (i *Issuer) Issue(ctx context.Context, email, externalEventID *string) (*model.Invite, error) {
	tok, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite token: %w", err)
	}

	inv := &model.Invite{
		Email:           email,
		Token:           tok,
		ExternalEventID: externalEventID,
		IssuedAt:        time.Now(),
		Used:            false,
	}

	if err := i.repo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to persist invite: %w", err)
	}

	return inv, nil
}

// IssueAsync はHTTPレスポンスから切り離して招待を発行する。
// 失敗はログに記録するのみで呼び出し元には伝播しない
// （決済プロバイダに内部ストレージ障害で再試行させないため）。
// レスポンス返却後も処理が続くため、リクエストコンテキストではなく
// 上限時間付きの独立コンテキストを使う。
func (i *Issuer) IssueAsync(email, externalEventID *string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
		defer cancel()

		inv, err := i.Issue(ctx, email, externalEventID)
		if err != nil {
			slog.Error("failed to issue invite",
				slog.String("error", err.Error()),
			)
			return
		}

		attrs := []any{slog.String("token", inv.Token)}
		if email != nil {
			attrs = append(attrs, slog.String("email", *email))
		}
		slog.Info("invite issued", attrs...)
	}()
}

// generateToken は暗号的に安全な乱数で招待トークンを生成する。
func generateToken() (string, error) {
	b := make([]byte, tokenLength)
	max := big.NewInt(int64(len(tokenCharset)))
	for idx := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[idx] = tokenCharset[n.Int64()]
	}
	return tokenPrefix + string(b), nil
}
