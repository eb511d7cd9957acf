package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"github.com/iho/acctledger/internal/domain"
	"github.com/iho/acctledger/internal/usecase"
)

var _ usecase.Metrics = (*Metrics)(nil)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.TransfersRecorded == nil || m.HTTPRequests == nil || m.ImportRows == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.HTTPRequests.WithLabelValues("GET", "/health", "200").Inc()
	m.TransferErrors.WithLabelValues(string(domain.KindNotFound)).Inc()
	m.ImportRows.WithLabelValues(string(usecase.ImportStatusCreated)).Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	New(registry)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected duplicate registration to panic")
		}
	}()

	New(registry)
}

func TestLedgerRecorders(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.TransferRecorded(decimal.RequireFromString("12.50"))
	m.TransferRecorded(decimal.RequireFromString("1.00"))
	m.TransferFailed(domain.KindInsufficientFunds)
	m.AccountCreated()
	m.ImportRowProcessed(usecase.ImportStatusUpdated)
	m.ImportRowProcessed(usecase.ImportStatusFailed)
	m.ImportRowProcessed(usecase.ImportStatusFailed)
	m.RateLimited()

	if got := testutil.ToFloat64(m.TransfersRecorded); got != 2 {
		t.Fatalf("expected 2 transfers, got %v", got)
	}

	if got := testutil.ToFloat64(m.TransferErrors.WithLabelValues("insufficient_funds")); got != 1 {
		t.Fatalf("expected 1 insufficient funds error, got %v", got)
	}

	if got := testutil.ToFloat64(m.AccountsCreated); got != 1 {
		t.Fatalf("expected 1 account, got %v", got)
	}

	if got := testutil.ToFloat64(m.ImportRows.WithLabelValues("failed")); got != 2 {
		t.Fatalf("expected 2 failed rows, got %v", got)
	}

	if got := testutil.ToFloat64(m.RateLimitHits); got != 1 {
		t.Fatalf("expected 1 rate limit hit, got %v", got)
	}

	if got := testutil.CollectAndCount(m.TransferAmount); got != 1 {
		t.Fatalf("expected one amount histogram, got %d", got)
	}
}

func TestRequestRecorders(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RequestStarted()
	if got := testutil.ToFloat64(m.HTTPInFlight); got != 1 {
		t.Fatalf("expected one in-flight request, got %v", got)
	}

	m.RequestFinished("GET", "/api/v1/accounts/{key}", 404, 0)

	if got := testutil.ToFloat64(m.HTTPInFlight); got != 0 {
		t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
	}

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v1/accounts/{key}", "404")); got != 1 {
		t.Fatalf("expected one request, got %v", got)
	}
}
