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
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordProxyRequest(endpoint string)
	RecordRedditStatus(statusCode int)
	RecordRedditLatency(duration time.Duration)
	RecordSubmitOutcome(success bool)
	RecordMemoryCreated()
	RecordUploadBytes(size int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	proxyRequests *prometheus.CounterVec
	redditStatus  *prometheus.CounterVec
	redditLatency prometheus.Histogram
	submitOutcome *prometheus.CounterVec
	memoryCreated prometheus.Counter
	uploadBytes   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		proxyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fanpage_proxy_requests_total",
			Help: "プロキシAPIへのリクエスト数（エンドポイント別）",
		}, []string{"endpoint"}),
		redditStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fanpage_reddit_status_total",
			Help: "Reddit APIのHTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		redditLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fanpage_reddit_latency_seconds",
			Help:    "Reddit APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		submitOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fanpage_submit_total",
			Help: "Reddit投稿の結果別の合計数",
		}, []string{"outcome"}),
		memoryCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fanpage_memories_created_total",
			Help: "作成された思い出の合計数",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fanpage_upload_bytes_total",
			Help: "アップロードされた画像の合計バイト数",
		}),
	}

	reg.MustRegister(
		c.proxyRequests,
		c.redditStatus,
		c.redditLatency,
		c.submitOutcome,
		c.memoryCreated,
		c.uploadBytes,
	)

	return c
}

// RecordProxyRequest はプロキシAPIへのリクエストを記録する。
func (c *Collector) RecordProxyRequest(endpoint string) {
	c.proxyRequests.WithLabelValues(endpoint).Inc()
}

// RecordRedditStatus はReddit APIのHTTPステータスコードを記録する。
func (c *Collector) RecordRedditStatus(statusCode int) {
	c.redditStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRedditLatency はReddit APIリクエストのレイテンシを記録する。
func (c *Collector) RecordRedditLatency(duration time.Duration) {
	c.redditLatency.Observe(duration.Seconds())
}

// RecordSubmitOutcome はReddit投稿の結果を記録する。
func (c *Collector) RecordSubmitOutcome(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	c.submitOutcome.WithLabelValues(outcome).Inc()
}

// RecordMemoryCreated は思い出の作成を記録する。
func (c *Collector) RecordMemoryCreated() {
	c.memoryCreated.Inc()
}

// RecordUploadBytes はアップロードされた画像のバイト数を記録する。
func (c *Collector) RecordUploadBytes(size int64) {
	c.uploadBytes.Add(float64(size))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
