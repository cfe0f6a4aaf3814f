package creds

import "github.com/prometheus/client_golang/prometheus"

var (
	cacheHit = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "credcache",
			Subsystem: "creds",
			Name:      "cache_hit_total",
			Help:      "Number of requests served from the stored credential",
		},
	)

	cacheMiss = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "credcache",
			Subsystem: "creds",
			Name:      "cache_miss_total",
			Help:      "Number of requests that required a fetch from the issuer",
		},
	)

	errorFetching = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "credcache",
			Subsystem: "creds",
			Name:      "fetch_errors_total",
			Help:      "Number of errors fetching credentials from the issuer",
		},
	)

	fetchTiming = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "credcache",
			Subsystem: "creds",
			Name:      "fetch_timing_seconds",
			Help:      "Bucketed histogram of issuer fetch timings",

			// 1ms to 5min
			Buckets: prometheus.ExponentialBuckets(.001, 2, 13),
		},
	)

	fetchExecuting = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "credcache",
			Subsystem: "creds",
			Name:      "fetch_current",
			Help:      "Number of issuer fetches currently executing",
		},
	)
)

func init() {
	prometheus.MustRegister(cacheHit)
	prometheus.MustRegister(cacheMiss)
	prometheus.MustRegister(errorFetching)
	prometheus.MustRegister(fetchTiming)
	prometheus.MustRegister(fetchExecuting)
}
