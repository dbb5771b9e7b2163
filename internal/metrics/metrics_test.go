package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordEarn("catering", 5)
	m.RecordEarn("catering", 2)
	m.RecordRedeem(60)
	m.RecordOperation("redeem", OutcomeDenied)
	m.RecordOrder("pending")

	assert.Equal(t, float64(7), testutil.ToFloat64(m.pointsEarned.WithLabelValues("catering")))
	assert.Equal(t, float64(60), testutil.ToFloat64(m.pointsRedeemed))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.operations.WithLabelValues("redeem", OutcomeDenied)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.orders.WithLabelValues("pending")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordEarn("cafe", 1)
	m.RecordRedeem(1)
	m.RecordOperation("earn", OutcomeSuccess)
	m.RecordOrder("pending")
	m.ObserveHTTP("/healthz", http.MethodGet, 200, time.Millisecond)
}

func TestHandlerExposesRegistry(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)
	m.ObserveHTTP("/api/loyalty/balance", http.MethodGet, 200, 3*time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "nilecafe_http_request_duration_seconds")
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}
