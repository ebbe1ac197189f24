package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/TildeSecDev/Yuck/internal/metrics"
	"github.com/TildeSecDev/Yuck/internal/model"
	"github.com/TildeSecDev/Yuck/internal/payment"
)

// webhookMaxBodySize はWebhookボディの最大サイズ。
const webhookMaxBodySize = 1 << 20 // 1MB

// stripeSignatureHeader は署名が渡されるヘッダー名。
const stripeSignatureHeader = "Stripe-Signature"

// InviteIssuer は招待発行のためのインターフェース。
// invite.Issuerの部分集合として定義する。
type InviteIssuer interface {
	// IssueAsync はレスポンスと切り離して招待を発行する。
	IssueAsync(email, externalEventID *string)
}

// WebhookHandler は決済プロバイダからのWebhookを処理するHTTPハンドラー。
type WebhookHandler struct {
	issuer  InviteIssuer
	secret  string
	metrics metrics.MetricsCollector
}

// NewWebhookHandler はWebhookHandlerを生成する。
// secretが空の場合は署名検証を行わない（開発用フォールバック）。
func NewWebhookHandler(issuer InviteIssuer, secret string, collector metrics.MetricsCollector) *WebhookHandler {
	return &WebhookHandler{
		issuer:  issuer,
		secret:  secret,
		metrics: collector,
	}
}

// HandleStripe はStripe Webhookイベントを処理する。
// POST /webhook/stripe
// 署名検証に失敗した場合のみ400を返す。それ以外は招待発行の成否に
// かかわらず200を返し、プロバイダに再送させない。
func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, webhookMaxBodySize))
	if err != nil {
		slog.Error("failed to read webhook body", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidSignatureError())
		return
	}

	event, err := payment.ParseEvent(payload, r.Header.Get(stripeSignatureHeader), h.secret)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidWebhookSignature) {
			slog.Warn("webhook signature verification failed")
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidSignatureError())
			return
		}
		// 署名は正当（または検証なし）だがボディが解析できない。
		// 再送されても解決しないので受領扱いにする。
		slog.Warn("failed to parse webhook event", slog.String("error", err.Error()))
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	h.metrics.RecordWebhookEvent(event.Type)

	if event.IsInviteTrigger() {
		session := event.Session()
		email := session.Email()
		if email == nil {
			slog.Warn("invite trigger event without customer email",
				slog.String("event_type", event.Type),
			)
		}

		var externalEventID *string
		if event.ID != "" {
			externalEventID = &event.ID
		}

		h.issuer.IssueAsync(email, externalEventID)
		h.metrics.RecordInviteIssued()
	}

	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}
