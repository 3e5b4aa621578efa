// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the simulation engine.
// A nil *Metrics is valid and records nothing, so library code can take
// metrics optionally.
type Metrics struct {
	// Engine metrics
	BarsProcessed   prometheus.Counter
	SignalsDetected prometheus.Counter
	SignalsSkipped  *prometheus.CounterVec
	TradesExecuted  *prometheus.CounterVec
	OpenPositions   prometheus.Gauge
	RunDuration     prometheus.Histogram

	// Feed metrics
	FeedBarsReceived prometheus.Counter
	FeedReconnects   prometheus.Counter
}

// NewMetrics creates a Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pump_short_lab"
	}

	return &Metrics{
		BarsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "bars_processed_total",
			Help:      "Total number of bars processed by the executor",
		}),
		SignalsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "signals_detected_total",
			Help:      "Total number of pump-reversal signals detected",
		}),
		SignalsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "signals_skipped_total",
			Help:      "Qualifying signals rejected by capacity limits",
		}, []string{"reason"}),
		TradesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trades_executed_total",
			Help:      "Trade executions by action",
		}, []string{"action"}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "open_positions",
			Help:      "Number of currently open positions",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of simulation runs",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		FeedBarsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "bars_received_total",
			Help:      "Closed kline bars received from the websocket feed",
		}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Websocket feed reconnect attempts",
		}),
	}
}

// RecordBar increments the bars processed counter.
func (m *Metrics) RecordBar() {
	if m != nil {
		m.BarsProcessed.Inc()
	}
}

// RecordSignal increments the signals detected counter.
func (m *Metrics) RecordSignal() {
	if m != nil {
		m.SignalsDetected.Inc()
	}
}

// RecordSkip records a capacity-limited signal.
func (m *Metrics) RecordSkip(reason string) {
	if m != nil {
		m.SignalsSkipped.WithLabelValues(reason).Inc()
	}
}

// RecordTrade records a trade execution.
func (m *Metrics) RecordTrade(action string) {
	if m != nil {
		m.TradesExecuted.WithLabelValues(action).Inc()
	}
}

// SetOpenPositions updates the open-positions gauge.
func (m *Metrics) SetOpenPositions(n int) {
	if m != nil {
		m.OpenPositions.Set(float64(n))
	}
}

// RecordRunDuration observes a run duration in seconds.
func (m *Metrics) RecordRunDuration(seconds float64) {
	if m != nil {
		m.RunDuration.Observe(seconds)
	}
}

// RecordFeedBar increments the feed bar counter.
func (m *Metrics) RecordFeedBar() {
	if m != nil {
		m.FeedBarsReceived.Inc()
	}
}

// RecordFeedReconnect increments the feed reconnect counter.
func (m *Metrics) RecordFeedReconnect() {
	if m != nil {
		m.FeedReconnects.Inc()
	}
}

// Handler returns an HTTP handler exposing the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
