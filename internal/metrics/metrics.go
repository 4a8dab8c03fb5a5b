package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forum_http_request_duration_seconds",
		Help:    "Histogram of HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status_code"})

	BackendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forum_backend_request_duration_seconds",
		Help:    "Histogram of remote data service request latency in seconds.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"method", "path", "status_code"})

	FeedLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_feed_loads_total",
		Help: "Feed loads by scope and outcome (ok, partial, error).",
	}, []string{"scope", "outcome"})

	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_like_toggles_total",
		Help: "Like toggles by action (like, unlike) and outcome (ok, error).",
	}, []string{"action", "outcome"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
