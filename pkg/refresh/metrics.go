package refresh

import "github.com/prometheus/client_golang/prometheus"

var (
	refreshSuccess = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "credcache",
			Subsystem: "refresh",
			Name:      "success_total",
			Help:      "Number of successful autonomous refreshes",
		},
	)

	refreshErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "credcache",
			Subsystem: "refresh",
			Name:      "errors_total",
			Help:      "Number of autonomous refreshes that failed",
		},
	)
)

func init() {
	prometheus.MustRegister(refreshSuccess)
	prometheus.MustRegister(refreshErrors)
}
