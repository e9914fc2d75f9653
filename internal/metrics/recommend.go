package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation Prometheus metrics.
var (
	RecommendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchd",
			Name:      "recommend_requests_total",
			Help:      "Total number of recommendation requests",
		},
		[]string{"collection", "source", "status"},
	)

	RecommendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "matchd",
			Name:      "recommend_duration_seconds",
			Help:      "Recommendation request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"collection", "source"},
	)

	IndexProbeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "matchd",
			Name:      "index_probe_total",
			Help:      "Managed index query-shape probe outcomes",
		},
		[]string{"shape", "outcome"}, // outcome: hit / empty / error
	)

	FallbackScanSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "matchd",
			Name:      "fallback_scan_size",
			Help:      "Number of candidates compared by the brute-force fallback",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
		[]string{"collection"},
	)
)

var recMetricsRegistered bool

// RegisterRecommendMetrics registers Prometheus recommendation metrics.
// Must be called once from main.
func RegisterRecommendMetrics() {
	if recMetricsRegistered {
		return
	}
	prometheus.MustRegister(RecommendRequestsTotal)
	prometheus.MustRegister(RecommendDuration)
	prometheus.MustRegister(IndexProbeTotal)
	prometheus.MustRegister(FallbackScanSize)
	recMetricsRegistered = true
}
