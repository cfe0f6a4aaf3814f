package metadata

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	handlerTimer = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "credcache",
			Subsystem: "metadata",
			Name:      "handler_latency_seconds",
			Help:      "Bucketed histogram of handler timings",

			// 1ms to 5min
			Buckets: prometheus.ExponentialBuckets(.001, 2, 13),
		},
		[]string{"handler"},
	)

	credentialFetchError = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "credcache",
			Subsystem: "metadata",
			Name:      "credential_fetch_errors_total",
			Help:      "Number of errors fetching credentials for a request",
		},
		[]string{"handler"},
	)

	credentialEncodeError = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "credcache",
			Subsystem: "metadata",
			Name:      "credential_encode_errors_total",
			Help:      "Number of errors encoding credentials for a response",
		},
		[]string{"handler"},
	)

	success = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "credcache",
			Subsystem: "metadata",
			Name:      "success_total",
			Help:      "Number of successful responses from a handler",
		},
		[]string{"handler"},
	)
)

func init() {
	prometheus.MustRegister(handlerTimer)
	prometheus.MustRegister(credentialFetchError)
	prometheus.MustRegister(credentialEncodeError)
	prometheus.MustRegister(success)
}
