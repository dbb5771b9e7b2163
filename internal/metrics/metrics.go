package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nilecafe"

const (
	OutcomeSuccess = "success"
	OutcomeDenied  = "denied"
	OutcomeError   = "error"
)

// Metrics holds the service counters. A nil *Metrics records nothing.
type Metrics struct {
	gatherer       prometheus.Gatherer
	pointsEarned   *prometheus.CounterVec
	pointsRedeemed prometheus.Counter
	operations     *prometheus.CounterVec
	orders         *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func New(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		gatherer: reg,
		pointsEarned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loyalty",
			Name:      "points_earned_total",
			Help:      "Loyalty points credited, by source.",
		}, []string{"source"}),
		pointsRedeemed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loyalty",
			Name:      "points_redeemed_total",
			Help:      "Loyalty points redeemed for rewards.",
		}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loyalty",
			Name:      "operations_total",
			Help:      "Loyalty ledger operations by outcome.",
		}, []string{"operation", "outcome"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catering",
			Name:      "orders_total",
			Help:      "Catering orders by status transition.",
		}, []string{"status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}

	for _, c := range []prometheus.Collector{m.pointsEarned, m.pointsRedeemed, m.operations, m.orders, m.httpDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) RecordEarn(source string, points int64) {
	if m == nil {
		return
	}
	m.pointsEarned.WithLabelValues(source).Add(float64(points))
}

func (m *Metrics) RecordRedeem(points int64) {
	if m == nil {
		return
	}
	m.pointsRedeemed.Add(float64(points))
}

func (m *Metrics) RecordOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordOrder(status string) {
	if m == nil {
		return
	}
	m.orders.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(route, method, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
