// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// チェックアウト失敗の段階
const (
	StagePayment = "payment"
	StageStore   = "store"
)

// アクセス確認の結果
const (
	AccessGranted = "granted"
	AccessDenied  = "denied"
	AccessError   = "error"
)

// 認証失敗の理由
const (
	AuthMissingHeader = "missing_header"
	AuthInvalidToken  = "invalid_token"
)

// 外部サービス名
const (
	VendorFirebase = "firebase"
	VendorStripe   = "stripe"
	VendorStore    = "store"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordCheckoutCreated()
	RecordCheckoutFailure(stage string)
	RecordAccessCheck(result string)
	RecordAuthFailure(reason string)
	RecordHTTPStatus(statusCode int)
	RecordVendorLatency(vendor string, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	checkoutCreated prometheus.Counter
	checkoutFail    *prometheus.CounterVec
	accessChecks    *prometheus.CounterVec
	authFail        *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	vendorLatency   *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		checkoutCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courseaccess_checkout_sessions_created_total",
			Help: "作成されたチェックアウトセッションの合計数",
		}),
		checkoutFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courseaccess_checkout_failures_total",
			Help: "失敗した段階別のチェックアウト失敗数",
		}, []string{"stage"}),
		accessChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courseaccess_access_checks_total",
			Help: "結果別のアクセス確認数",
		}, []string{"result"}),
		authFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courseaccess_auth_failures_total",
			Help: "理由別の認証失敗数",
		}, []string{"reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courseaccess_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		vendorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "courseaccess_vendor_call_latency_seconds",
			Help:    "外部サービス呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"vendor"}),
	}

	reg.MustRegister(
		c.checkoutCreated,
		c.checkoutFail,
		c.accessChecks,
		c.authFail,
		c.httpStatus,
		c.vendorLatency,
	)

	return c
}

// RecordCheckoutCreated はチェックアウトセッション作成成功を記録する。
func (c *Collector) RecordCheckoutCreated() {
	c.checkoutCreated.Inc()
}

// RecordCheckoutFailure はチェックアウト失敗を段階別に記録する。
func (c *Collector) RecordCheckoutFailure(stage string) {
	c.checkoutFail.WithLabelValues(stage).Inc()
}

// RecordAccessCheck はアクセス確認の結果を記録する。
func (c *Collector) RecordAccessCheck(result string) {
	c.accessChecks.WithLabelValues(result).Inc()
}

// RecordAuthFailure は認証失敗を理由別に記録する。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFail.WithLabelValues(reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordVendorLatency は外部サービス呼び出しのレイテンシを記録する。
func (c *Collector) RecordVendorLatency(vendor string, duration time.Duration) {
	c.vendorLatency.WithLabelValues(vendor).Observe(duration.Seconds())
}

// NopCollector は何も記録しないMetricsCollector。テストや無効化時に使う。
type NopCollector struct{}

func (NopCollector) RecordCheckoutCreated() {}
func (NopCollector) RecordCheckoutFailure(string) {}
func (NopCollector) RecordAccessCheck(string) {}
func (NopCollector) RecordAuthFailure(string) {}
func (NopCollector) RecordHTTPStatus(int) {}
func (NopCollector) RecordVendorLatency(string, time.Duration) {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
