package web

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	handlerTimer = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "s3bridge",
			Subsystem: "web",
			Name:      "handler_latency_seconds",
			Help:      "Bucketed histogram of handler timings",

			// 1ms to 5min
			Buckets: prometheus.ExponentialBuckets(.001, 2, 13),
		},
		[]string{"handler"},
	)

	responses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "s3bridge",
			Subsystem: "web",
			Name:      "responses_total",
			Help:      "Responses by handler and status code",
		},
		[]string{"handler", "code"},
	)

	credentialEncodeError = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "s3bridge",
			Subsystem: "web",
			Name:      "credential_encode_errors_total",
			Help:      "Number of errors encoding credentials for a response",
		},
		[]string{"handler"},
	)
)

func init() {
	prometheus.MustRegister(handlerTimer)
	prometheus.MustRegister(responses)
	prometheus.MustRegister(credentialEncodeError)
}
