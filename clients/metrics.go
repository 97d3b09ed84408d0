package clients

import "github.com/prometheus/client_golang/prometheus"

var (
	// Registry collects transport metrics
	Registry = prometheus.NewRegistry()

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sparkmon",
			Name:      "requests_total",
			Help:      "Count of monitoring requests by outcome",
		},
		[]string{"scheme", "outcome"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sparkmon",
			Name:      "request_duration_seconds",
			Help:      "Duration of monitoring requests, retries included",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 12},
		},
		[]string{"scheme"},
	)
	retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sparkmon",
			Name:      "request_retries_total",
			Help:      "Count of connection-level retries",
		},
		[]string{"scheme"},
	)
)

func init() {
	Registry.MustRegister(requestsTotal, requestDuration, retriesTotal)
}
