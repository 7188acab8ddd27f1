package sts

import "github.com/prometheus/client_golang/prometheus"

var (
	errorIssuing = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "s3bridge",
			Subsystem: "sts",
			Name:      "issuing_errors_total",
			Help:      "Number of errors issuing credentials",
		},
	)

	assumeRole = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "s3bridge",
			Subsystem: "sts",
			Name:      "assumerole_timing_seconds",
			Help:      "Bucketed histogram of assumeRole timings",

			// 1ms to 5min
			Buckets: prometheus.ExponentialBuckets(.001, 2, 13),
		},
	)

	assumeRoleExecuting = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "s3bridge",
			Subsystem: "sts",
			Name:      "assumerole_current",
			Help:      "Number of assume role calls currently executing",
		},
	)
)

func init() {
	prometheus.MustRegister(errorIssuing)
	prometheus.MustRegister(assumeRole)
	prometheus.MustRegister(assumeRoleExecuting)
}
