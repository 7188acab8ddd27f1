package authclient

import "github.com/prometheus/client_golang/prometheus"

var (
	fetches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "s3bridge",
			Subsystem: "authclient",
			Name:      "fetch_total",
			Help:      "Number of fresh credential fetches from the broker",
		},
	)

	fetchErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "s3bridge",
			Subsystem: "authclient",
			Name:      "fetch_errors_total",
			Help:      "Number of failed credential fetches",
		},
	)
)

func init() {
	prometheus.MustRegister(fetches)
	prometheus.MustRegister(fetchErrors)
}
