// Package metrics exposes Prometheus collectors for checkouts, callbacks and HTTP traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fitstack/concordpay-gateway/internal/core/domain"
)

const namespace = "concordpay_gateway"

// Metrics holds the service collectors. It implements ports.Recorder.
type Metrics struct {
	checkouts       *prometheus.CounterVec
	callbacks       *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		checkouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Payment requests built, by result.",
		}, []string{"result", "code"}),
		callbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callbacks_total",
			Help:      "Processor callbacks handled, by outcome and reason.",
		}, []string{"outcome", "reason"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) CheckoutCreated(currency string) {
	m.checkouts.WithLabelValues("created", currency).Inc()
}

func (m *Metrics) CheckoutFailed(code string) {
	m.checkouts.WithLabelValues("failed", code).Inc()
}

func (m *Metrics) CallbackHandled(outcome domain.Outcome) {
	m.callbacks.WithLabelValues(string(outcome.Kind), outcome.Reason).Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	m.requestDuration.WithLabelValues(method, route, status).Observe(seconds)
}
