package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(paymentsTotal, paymentApplyTotal, pendingTransactions)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment transactions by status (pending/completed/failed).",
		},
		[]string{"provider", "status"},
	)

	paymentApplyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_apply_total",
			Help: "Confirmation events by outcome (applied/already_applied/rejected).",
		},
		[]string{"outcome"},
	)

	pendingTransactions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "payment_pending_transactions",
			Help: "Current number of transactions stuck in pending.",
		},
	)
)

func IncPayment(provider, status string) {
	paymentsTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func IncPaymentApply(outcome string) {
	paymentApplyTotal.WithLabelValues(norm(outcome)).Inc()
}

func SetPendingTransactions(n int) {
	pendingTransactions.Set(float64(n))
}
