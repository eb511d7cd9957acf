package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/usecase"
)

const namespace = "acctledger"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersRecorded prometheus.Counter
	TransferAmount    prometheus.Histogram
	TransferErrors    *prometheus.CounterVec

	// Account metrics
	AccountsCreated prometheus.Counter

	// Import metrics
	ImportRows *prometheus.CounterVec

	// API metrics
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	HTTPInFlight  prometheus.Gauge
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Transfer metrics
		TransfersRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_recorded_total",
			Help:      "Total number of committed transfers",
		}),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_amount",
			Help:      "Transfer amounts",
			Buckets:   []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		TransferErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfer_errors_total",
				Help:      "Total number of failed transfers by error kind",
			},
			[]string{"kind"},
		),

		// Account metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_created_total",
			Help:      "Total number of accounts created",
		}),

		// Import metrics
		ImportRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "import_rows_total",
				Help:      "Total number of imported rows by outcome",
			},
			[]string{"status"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total requests rejected by the rate limiter",
		}),
	}
}

// TransferRecorded counts a committed transfer.
func (m *Metrics) TransferRecorded(amount decimal.Decimal) {
	m.TransfersRecorded.Inc()
	m.TransferAmount.Observe(amount.InexactFloat64())
}

// TransferFailed counts a rejected transfer.
func (m *Metrics) TransferFailed(kind domain.Kind) {
	m.TransferErrors.WithLabelValues(string(kind)).Inc()
}

// AccountCreated counts a new account.
func (m *Metrics) AccountCreated() {
	m.AccountsCreated.Inc()
}

// ImportRowProcessed counts one import row outcome.
func (m *Metrics) ImportRowProcessed(status usecase.ImportStatus) {
	m.ImportRows.WithLabelValues(string(status)).Inc()
}

// RateLimited counts a request rejected by the rate limiter.
func (m *Metrics) RateLimited() {
	m.RateLimitHits.Inc()
}

// RequestStarted tracks a request entering the server.
func (m *Metrics) RequestStarted() {
	m.HTTPInFlight.Inc()
}

// RequestFinished records a completed request under its route pattern.
func (m *Metrics) RequestFinished(method, route string, status int, elapsed time.Duration) {
	m.HTTPInFlight.Dec()
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
