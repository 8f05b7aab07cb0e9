package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	upstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mama_web_upstream_requests_total",
			Help: "Total number of requests sent to the upstream REST API.",
		},
		[]string{"method", "resource", "result"},
	)

	upstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mama_web_upstream_request_duration_seconds",
			Help:    "Latency of upstream REST API requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "resource"},
	)

	contentCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mama_web_content_cache_total",
			Help: "Public content lookups by section and outcome (hit, miss, fallback).",
		},
		[]string{"section", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(Collectors()...)
}

// Collectors returns every collector owned by this package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		upstreamRequestsTotal,
		upstreamRequestDuration,
		contentCacheTotal,
	}
}

// RecordUpstream records one upstream API call. result is "success",
// "http_error" or "transport_error".
func RecordUpstream(method, resource, result string, d time.Duration) {
	upstreamRequestsTotal.WithLabelValues(method, resource, result).Inc()
	upstreamRequestDuration.WithLabelValues(method, resource).Observe(d.Seconds())
}

// RecordContent records a public content cache lookup.
func RecordContent(section, outcome string) {
	contentCacheTotal.WithLabelValues(section, outcome).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
