package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(swipesTotal, quotaChecksTotal)
}

var (
	swipesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swipes_total",
			Help: "Swipe increment attempts by result.",
		},
		[]string{"result"}, // 'ok', 'quota_exceeded', 'conflict', 'error'
	)

	quotaChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_checks_total",
			Help: "Read-only canSwipe checks by verdict.",
		},
		[]string{"verdict"}, // 'allowed', 'denied'
	)
)

func IncSwipe(result string) {
	swipesTotal.WithLabelValues(norm(result)).Inc()
}

func IncQuotaCheck(allowed bool) {
	verdict := "denied"
	if allowed {
		verdict = "allowed"
	}
	quotaChecksTotal.WithLabelValues(verdict).Inc()
}
