// Package token は認証付き暗号化されたセッショントークンの発行・検証を提供する。
// トークンはサーバーサイドの状態を持たず、復号成功と有効期限チェックのみで正当性を証明する。
package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// ErrInvalidToken はトークン検証失敗を表す唯一のエラー。
// 復号失敗・ペイロード不正・期限切れのいずれでも同一のエラーを返し、
// 失敗理由の区別によるオラクル漏洩を防ぐ。
var ErrInvalidToken = errors.New("invalid token")

// Claims はトークンに封入される本人性アサーション。
type Claims struct {
	Subject   int64  `json:"sub"`
	Email     string `json:"email"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Codec はAES-256-GCMによるトークンの発行と検証を行う。
// 鍵は設定されたシークレットのSHA-256ハッシュから導出する
// （生のシークレットを直接鍵素材として使わない）。
type Codec struct {
	key [sha256.Size]byte
	ttl time.Duration
	now func() time.Time
}

// NewCodec はCodecを生成する。ttlは発行するトークンの有効期間。
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{
		key: sha256.Sum256([]byte(secret)),
		ttl: ttl,
		now: time.Now,
	}
}

// TTL は発行するトークンの有効期間を返す。
// CookieのMax-Ageをトークン有効期限と一致させるために使用する。
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue は指定アカウントの暗号化トークンを発行する。
// 有効期限は発行時刻 + TTL。
func (c *Codec) Issue(subject int64, email string) (string, error) {
	now := c.now()
	claims := Claims{
		Subject:   subject,
		Email:     email,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(c.ttl).Unix(),
	}

	plaintext, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	gcm, err := c.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	// 出力形式: base64url(nonce || ciphertext)
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Verify はトークンを復号し、有効期限を検証してClaimsを返す。
// あらゆる失敗はErrInvalidTokenに正規化される。
func (c *Codec) Verify(tok string) (*Claims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return nil, ErrInvalidToken
	}

	gcm, err := c.aead()
	if err != nil {
		return nil, ErrInvalidToken
	}

	if len(raw) < gcm.NonceSize() {
		return nil, ErrInvalidToken
	}

	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var claims Claims
	if err := json.Unmarshal(plaintext, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Subject == 0 {
		return nil, ErrInvalidToken
	}
	if !c.now().Before(time.Unix(claims.ExpiresAt, 0)) {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

// aead は導出済み鍵からAES-GCMのAEADを構築する。
func (c *Codec) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
