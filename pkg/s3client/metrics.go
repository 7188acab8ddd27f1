package s3client

import "github.com/prometheus/client_golang/prometheus"

var (
	unauthorizedOpens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "s3bridge",
			Subsystem: "storage",
			Name:      "unauthorized_opens_total",
			Help:      "Number of facade constructions refused by the bucket pattern gate",
		},
	)

	operationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "s3bridge",
			Subsystem: "storage",
			Name:      "operation_errors_total",
			Help:      "Number of failed storage operations by kind",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(unauthorizedOpens)
	prometheus.MustRegister(operationErrors)
}
