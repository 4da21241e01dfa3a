package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(checkoutSessionsTotal, checkoutRejectionsTotal) }

var checkoutSessionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "checkout_sessions_total",
		Help: "Checkout attempts by outcome (created/free/rejected/gateway_error).",
	},
	[]string{"outcome"},
)

var checkoutRejectionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "checkout_rejections_total",
		Help: "Cart validation failures by machine-checkable reason.",
	},
	[]string{"code"},
)

func IncCheckoutSession(outcome string) {
	checkoutSessionsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncCheckoutRejection(code string) {
	checkoutRejectionsTotal.WithLabelValues(code).Inc()
}
