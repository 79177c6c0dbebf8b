// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// クライアントやハンドラー層から利用する。
type MetricsCollector interface {
	RecordRequest(method string, statusCode int, duration time.Duration)
	RecordCartMutation(signal string)
	RecordLoginOutcome(result string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	requestTotal   *prometheus.CounterVec
	requestLatency prometheus.Histogram
	cartMutations  *prometheus.CounterVec
	loginOutcomes  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_request_total",
			Help: "カタログサービスへのリクエスト数（メソッド・ステータスコード別）",
		}, []string{"method", "status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_request_latency_seconds",
			Help:    "カタログサービスへのリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "カート変更操作の数（シグナル別）",
		}, []string{"signal"}),
		loginOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_login_total",
			Help: "ログイン試行の数（結果別）",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.requestTotal,
		c.requestLatency,
		c.cartMutations,
		c.loginOutcomes,
	)

	return c
}

// RecordRequest はカタログサービスへの1リクエストを記録する。
// トランスポート障害でレスポンスが無い場合はstatusCode 0で記録される。
func (c *Collector) RecordRequest(method string, statusCode int, duration time.Duration) {
	c.requestTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.requestLatency.Observe(duration.Seconds())
}

// RecordCartMutation はカート変更操作を記録する。
func (c *Collector) RecordCartMutation(signal string) {
	c.cartMutations.WithLabelValues(signal).Inc()
}

// RecordLoginOutcome はログイン試行の結果を記録する。
func (c *Collector) RecordLoginOutcome(result string) {
	c.loginOutcomes.WithLabelValues(result).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
