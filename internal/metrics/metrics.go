// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーおよびサービス層から利用する。
type MetricsCollector interface {
	RecordSignup()
	RecordLogin()
	RecordAuthFailure()
	RecordRateLimited()
	RecordInviteIssued()
	RecordWebhookEvent(eventType string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	signups       prometheus.Counter
	logins        prometheus.Counter
	authFailures  prometheus.Counter
	rateLimited   prometheus.Counter
	invitesIssued prometheus.Counter
	webhookEvents *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yuck_signups_total",
			Help: "アカウント登録成功の合計数",
		}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yuck_logins_total",
			Help: "ログイン成功の合計数",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yuck_auth_failures_total",
			Help: "認証失敗の合計数",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yuck_rate_limited_total",
			Help: "レート制限で拒否されたリクエストの合計数",
		}),
		invitesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yuck_invites_issued_total",
			Help: "発行された招待トークンの合計数",
		}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yuck_webhook_events_total",
			Help: "受信したWebhookイベントのタイプ別合計数",
		}, []string{"type"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yuck_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.signups,
		c.logins,
		c.authFailures,
		c.rateLimited,
		c.invitesIssued,
		c.webhookEvents,
		c.httpStatus,
	)

	return c
}

// RecordSignup はアカウント登録成功を記録する。
func (c *Collector) RecordSignup() {
	c.signups.Inc()
}

// RecordLogin はログイン成功を記録する。
func (c *Collector) RecordLogin() {
	c.logins.Inc()
}

// RecordAuthFailure は認証失敗を記録する。
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Inc()
}

// RecordRateLimited はレート制限による拒否を記録する。
func (c *Collector) RecordRateLimited() {
	c.rateLimited.Inc()
}

// RecordInviteIssued は招待トークンの発行を記録する。
func (c *Collector) RecordInviteIssued() {
	c.invitesIssued.Inc()
}

// RecordWebhookEvent は受信したWebhookイベントを記録する。
func (c *Collector) RecordWebhookEvent(eventType string) {
	c.webhookEvents.WithLabelValues(eventType).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
