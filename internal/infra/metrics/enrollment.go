package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(purchasesTotal, enrollmentsTotal, enrollmentsExpired) }

var purchasesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "purchases_total",
		Help: "Purchases by terminal disposition (completed/duplicate_session).",
	},
	[]string{"status"},
)

var enrollmentsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "enrollments_total",
		Help: "Per-item enrollment attempts by outcome (enrolled/already_owned/failed).",
	},
	[]string{"outcome"},
)

var enrollmentsExpired = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "enrollments_expired_total",
		Help: "Enrollments flipped to expired by the sweep worker.",
	},
)

func IncPurchase(status string)    { purchasesTotal.WithLabelValues(norm(status)).Inc() }
func IncEnrollment(outcome string) { enrollmentsTotal.WithLabelValues(norm(outcome)).Inc() }
func AddEnrollmentsExpired(n int)  { enrollmentsExpired.Add(float64(n)) }
