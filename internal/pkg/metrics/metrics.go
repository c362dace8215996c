package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 状態遷移の結果（operation: initialize_registry/create_event/buy_ticket/use_ticket, status: success/エラー種別）
	OperationsTotal *prometheus.CounterVec

	// 分散ロックの操作時間（operation: acquire/release, status: success/failed）
	DistributedLockDuration *prometheus.HistogramVec

	// 販売済みチケット数
	TicketsSoldTotal prometheus.Counter

	// アウトボックス送信結果（status: published/failed）
	OutboxMessagesTotal *prometheus.CounterVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketing_operations_total",
				Help: "Total number of ticketing state transitions by outcome",
			},
			[]string{"operation", "status"},
		),
		DistributedLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distributed_lock_duration_seconds",
				Help:    "Time spent on distributed lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
		TicketsSoldTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tickets_sold_total",
				Help: "Total number of tickets sold",
			},
		),
		OutboxMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outbox_messages_total",
				Help: "Outbox messages relayed by outcome",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OperationsTotal,
		m.DistributedLockDuration,
		m.TicketsSoldTotal,
		m.OutboxMessagesTotal,
	)

	return m
}

// 以下の Observe 系は nil レシーバでも何もしない

// ObserveOperation は状態遷移の結果を記録する
func (m *Metrics) ObserveOperation(operation, status string) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
}

// ObserveTicketSold は販売数を1増やす
func (m *Metrics) ObserveTicketSold() {
	if m == nil {
		return
	}
	m.TicketsSoldTotal.Inc()
}

// ObserveLock はロック操作の所要時間を記録する
func (m *Metrics) ObserveLock(operation string, start time.Time, ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failed"
	}
	m.DistributedLockDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// ObserveOutbox はアウトボックスの送信結果を記録する
func (m *Metrics) ObserveOutbox(status string) {
	if m == nil {
		return
	}
	m.OutboxMessagesTotal.WithLabelValues(status).Inc()
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す（未初期化なら nil）
func Get() *Metrics {
	return defaultMetrics
}
