package directory

import "github.com/prometheus/client_golang/prometheus"

var (
	cacheHit = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "s3bridge",
			Subsystem: "directory",
			Name:      "cache_hit_total",
			Help:      "Number of cache hits to the service directory cache",
		},
	)

	cacheMiss = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "s3bridge",
			Subsystem: "directory",
			Name:      "cache_miss_total",
			Help:      "Number of cache misses to the service directory cache",
		},
	)
)

func init() {
	prometheus.MustRegister(cacheHit)
	prometheus.MustRegister(cacheMiss)
}
