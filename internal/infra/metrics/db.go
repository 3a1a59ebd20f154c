package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(txRetriesTotal, txExhaustedTotal) }

var (
	txRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "db_tx_retries_total",
			Help: "Serialization conflicts retried by the transaction manager.",
		},
	)

	txExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "db_tx_retry_exhausted_total",
			Help: "Transactions that failed after spending the retry budget.",
		},
	)
)

func IncTxRetry() { txRetriesTotal.Inc() }

func IncTxRetryExhausted() { txExhaustedTotal.Inc() }
