package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidWebhookSignature は署名検証失敗を表す。
// ヘッダ欠落・形式不正・タイムスタンプ乖離・ダイジェスト不一致を区別しない。
var ErrInvalidWebhookSignature = errors.New("invalid webhook signature")

// signatureTolerance は署名タイムスタンプとして許容する現在時刻との乖離。
// リプレイ攻撃の窓を狭める。
const signatureTolerance = 5 * time.Minute

// verifyNow はテストで時計を固定するためのフック。
var verifyNow = time.Now

// VerifySignature はStripeのv1署名スキームでWebhookボディを検証する。
// ヘッダ形式は "t=<unix>,v1=<hex hmac>,..."、署名対象は "<t>.<body>"。
func VerifySignature(payload []byte, sigHeader, secret string) error {
	if sigHeader == "" {
		return ErrInvalidWebhookSignature
	}

	var timestamp int64
	var candidates []string

	for _, part := range strings.Split(sigHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return ErrInvalidWebhookSignature
			}
			timestamp = ts
		case "v1":
			candidates = append(candidates, value)
		}
	}

	if timestamp == 0 || len(candidates) == 0 {
		return ErrInvalidWebhookSignature
	}

	age := verifyNow().Sub(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return ErrInvalidWebhookSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		sig, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(sig, expected) {
			return nil
		}
	}

	return ErrInvalidWebhookSignature
}
