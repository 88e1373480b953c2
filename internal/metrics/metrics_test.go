package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/fitstack/concordpay-gateway/internal/core/domain"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CheckoutCreated("UAH")
	m.CheckoutCreated("UAH")
	m.CheckoutFailed("UNSUPPORTED_CURRENCY")
	m.CallbackHandled(domain.Outcome{Kind: domain.OutcomeRejected, Reason: domain.ReasonInvalidSignature})
	m.CallbackHandled(domain.Outcome{Kind: domain.OutcomeTransitioned})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkouts.WithLabelValues("created", "UAH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("failed", "UNSUPPORTED_CURRENCY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callbacks.WithLabelValues("rejected", "invalid_signature")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callbacks.WithLabelValues("transitioned", "")))
}

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("POST", "/callback", "200", 0.01)

	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}
