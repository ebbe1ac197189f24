// Package payment は決済プロバイダ（Stripe）からのWebhookイベントの
// 解析と署名検証を提供する。Checkoutセッションの作成は外部協調者であり、
// 本パッケージのスコープ外。
package payment

import (
	"encoding/json"
	"fmt"
)

// 招待発行のトリガーとなるイベントタイプ。
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// CustomerDetails は決済完了時の顧客情報。
type CustomerDetails struct {
	Email string `json:"email"`
}

// CheckoutSession は決済イベントに含まれるCheckoutセッションの関心フィールドのみを表す。
type CheckoutSession struct {
	CustomerDetails *CustomerDetails  `json:"customer_details"`
	CustomerEmail   string            `json:"customer_email"`
	Metadata        map[string]string `json:"metadata"`
}

// Email はセッションからベストエフォートでメールアドレスを抽出する。
// 優先順位: customer_details.email → customer_email → metadata.email。
// どれも無い場合はnilを返す。
func (s *CheckoutSession) Email() *string {
	if s == nil {
		return nil
	}
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		return &s.CustomerDetails.Email
	}
	if s.CustomerEmail != "" {
		return &s.CustomerEmail
	}
	if email, ok := s.Metadata["email"]; ok && email != "" {
		return &email
	}
	return nil
}

// Event はWebhookで受信するイベントのエンベロープ。
// 署名なしの開発モードではセッションのフィールドがトップレベルに
// 直接置かれたボディも受け付ける（埋め込みCheckoutSessionで吸収する）。
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object *CheckoutSession `json:"object"`
	} `json:"data"`

	CheckoutSession
}

// Session はイベントからCheckoutセッションを取り出す。
// data.objectが無い場合はトップレベルのフィールドにフォールバックする。
func (e *Event) Session() *CheckoutSession {
	if e.Data.Object != nil {
		return e.Data.Object
	}
	return &e.CheckoutSession
}

// IsInviteTrigger は招待発行の対象イベントかどうかを返す。
func (e *Event) IsInviteTrigger() bool {
	return e.Type == EventCheckoutCompleted || e.Type == EventAsyncPaymentSucceeded
}

// ParseEvent はWebhookボディをイベントに解析する。
// secretが設定されている場合は先に署名を検証する。
// secretが空の場合はボディをそのまま信頼する（明示的な開発用フォールバック）。
func ParseEvent(payload []byte, sigHeader, secret string) (*Event, error) {
	if secret != "" {
		if err := VerifySignature(payload, sigHeader, secret); err != nil {
			return nil, err
		}
	}

	event := &Event{}
	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("failed to parse webhook event: %w", err)
	}

	return event, nil
}
