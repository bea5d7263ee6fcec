// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する。
// 評価・コメント・購読登録・通知ファンアウトの各コンポーネントから利用する。
type Collector struct {
	ratingsSubmitted  *prometheus.CounterVec
	duplicatesBlocked prometheus.Counter
	commentsPosted    prometheus.Counter
	signups           prometheus.Counter
	notifySent        prometheus.Counter
	notifyFailed      *prometheus.CounterVec
	dispatchLatency   prometheus.Histogram
	httpStatus        *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ratingsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "november_ratings_submitted_total",
			Help: "受け付けた評価の合計数（評価値別）",
		}, []string{"value"}),
		duplicatesBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "november_duplicate_ratings_blocked_total",
			Help: "重複としてブロックした評価の合計数",
		}),
		commentsPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "november_comments_posted_total",
			Help: "投稿されたコメントの合計数",
		}),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "november_signups_total",
			Help: "メール購読登録の合計数",
		}),
		notifySent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "november_notifications_sent_total",
			Help: "送信に成功した通知の合計数",
		}),
		notifyFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "november_notifications_failed_total",
			Help: "送信に失敗した通知の合計数（理由別）",
		}, []string{"reason"}),
		dispatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "november_notification_dispatch_seconds",
			Help:    "通知ファンアウト全体の所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "november_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.ratingsSubmitted,
		c.duplicatesBlocked,
		c.commentsPosted,
		c.signups,
		c.notifySent,
		c.notifyFailed,
		c.dispatchLatency,
		c.httpStatus,
	)

	return c
}

// RecordRatingSubmitted は評価の受付を記録する。
func (c *Collector) RecordRatingSubmitted(value int) {
	c.ratingsSubmitted.WithLabelValues(strconv.Itoa(value)).Inc()
}

// RecordDuplicateRatingBlocked は重複評価のブロックを記録する。
func (c *Collector) RecordDuplicateRatingBlocked() {
	c.duplicatesBlocked.Inc()
}

// RecordCommentPosted はコメント投稿を記録する。
func (c *Collector) RecordCommentPosted() {
	c.commentsPosted.Inc()
}

// RecordSignup は購読登録を記録する。
func (c *Collector) RecordSignup() {
	c.signups.Inc()
}

// RecordNotificationSent は通知送信成功を記録する。
func (c *Collector) RecordNotificationSent() {
	c.notifySent.Inc()
}

// RecordNotificationFailed は通知送信失敗を理由別に記録する。
func (c *Collector) RecordNotificationFailed(reason string) {
	c.notifyFailed.WithLabelValues(reason).Inc()
}

// RecordDispatchLatency は通知ファンアウトの所要時間を記録する。
func (c *Collector) RecordDispatchLatency(d time.Duration) {
	c.dispatchLatency.Observe(d.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
