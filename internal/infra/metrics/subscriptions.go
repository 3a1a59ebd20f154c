package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(subscriptionsDowngradedTotal, premiumRecords, recordsByPlan)
}

var (
	subscriptionsDowngradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_downgraded_total",
			Help: "Lazy downgrades applied when an expired record was touched.",
		},
	)

	premiumRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscription_premium_records",
			Help: "Premium records by renewal state.",
		},
		[]string{"state"}, // 'active', 'cancelled'
	)

	recordsByPlan = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscription_records_by_plan",
			Help: "Subscription records grouped by current plan.",
		},
		[]string{"plan"},
	)
)

func IncSubscriptionDowngraded() {
	subscriptionsDowngradedTotal.Inc()
}

func SetPremiumRecords(active, cancelled int) {
	premiumRecords.WithLabelValues("active").Set(float64(active))
	premiumRecords.WithLabelValues("cancelled").Set(float64(cancelled))
}

func SetRecordsByPlan(counts map[string]int) {
	for plan, n := range counts {
		recordsByPlan.WithLabelValues(norm(plan)).Set(float64(n))
	}
}
