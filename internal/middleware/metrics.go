package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Every metric carries the lob_ namespace, the same per-service prefix
// convention ch10_digital_wallet's telemetry package uses (wallet_*).
var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lob_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks request latency by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lob_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "path", "status"},
	)

	// OrdersTotal counts orders by action (new, cancel) and symbol.
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lob_orders_total",
			Help: "Total number of orders by action",
		},
		[]string{"action", "symbol"},
	)

	// MatchesTotal counts crossing inserts that produced at least one fill.
	MatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lob_matches_total",
			Help: "Total number of matches by symbol",
		},
		[]string{"symbol"},
	)

	// FillQuantity is the distribution of per-maker fill sizes within a
	// match — one observation per Fill instruction Apply executes, not per
	// match, so a multi-maker sweep shows up as several points.
	FillQuantity = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lob_fill_quantity",
			Help:    "Distribution of per-maker fill quantities",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		},
		[]string{"symbol"},
	)

	// OrderBookDepth tracks the number of resting orders on each side.
	OrderBookDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lob_orderbook_depth",
			Help: "Current order book depth",
		},
		[]string{"symbol", "side"},
	)

	// BestPrice tracks the best resting price on each side of the book,
	// zero when that side is empty.
	BestPrice = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lob_best_price",
			Help: "Best resting price by symbol and side",
		},
		[]string{"symbol", "side"},
	)

	// LastTradePrice tracks the most recent execution price per symbol.
	LastTradePrice = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lob_last_trade_price",
			Help: "Price of the most recent execution by symbol",
		},
		[]string{"symbol"},
	)

	// SequencerInboundSeq tracks the current inbound sequence number.
	SequencerInboundSeq = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lob_sequencer_inbound_seq",
			Help: "Current inbound sequence number",
		},
	)

	// SequencerOutboundSeq tracks the current outbound sequence number.
	SequencerOutboundSeq = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lob_sequencer_outbound_seq",
			Help: "Current outbound sequence number",
		},
	)
)

// PrometheusMiddleware records HTTP request count and latency metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		HTTPRequestsTotal.WithLabelValues(c.Request.Method, c.FullPath(), status).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, c.FullPath(), status).Observe(duration)
	}
}

// RecordFill observes a single maker fill quantity for a symbol, the
// histogram companion to MatchesTotal: one match may emit several
// fills, and this is where their size distribution is captured.
func RecordFill(symbol string, quantity float64) {
	FillQuantity.WithLabelValues(symbol).Observe(quantity)
}
