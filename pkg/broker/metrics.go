package broker

import "github.com/prometheus/client_golang/prometheus"

var (
	exchangeSuccess = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "s3bridge",
			Subsystem: "broker",
			Name:      "exchange_success_total",
			Help:      "Number of successful credential exchanges",
		},
	)

	unknownService = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "s3bridge",
			Subsystem: "broker",
			Name:      "unknown_service_total",
			Help:      "Number of exchange requests for unknown services",
		},
	)
)

func init() {
	prometheus.MustRegister(exchangeSuccess)
	prometheus.MustRegister(unknownService)
}
