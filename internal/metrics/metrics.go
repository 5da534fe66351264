// Package metrics holds the prometheus collectors for calls to the processor.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeffreyyong/globalone-gateway/internal/domain"
)

const namespace = "globalone"

// Outcomes of a gateway call.
const (
	OutcomeApproved = "approved"
	OutcomeDeclined = "declined"
	OutcomeError    = "error"
)

var (
	once sync.Once

	gatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Calls to the processor by payment action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	gatewayLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Processor call latency by payment action.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"action"},
	)
)

// MustRegister registers the collectors with the default registry. Safe to
// call more than once.
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(gatewayRequests, gatewayLatency)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Outcome classifies a gateway result.
func Outcome(resp *domain.Response, err error) string {
	switch {
	case err != nil || resp == nil:
		return OutcomeError
	case resp.Success:
		return OutcomeApproved
	default:
		return OutcomeDeclined
	}
}

// ObserveGateway records one call to the processor.
func ObserveGateway(action domain.PaymentActionType, resp *domain.Response, err error, elapsed time.Duration) {
	gatewayRequests.WithLabelValues(action.String(), Outcome(resp, err)).Inc()
	gatewayLatency.WithLabelValues(action.String()).Observe(elapsed.Seconds())
}
