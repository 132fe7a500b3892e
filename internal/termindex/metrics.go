package termindex

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "termlink_index_cache_requests_total",
		Help: "Term index cache lookups by result (hit, miss).",
	}, []string{"result"})

	buildTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "termlink_index_builds_total",
		Help: "Term index builds by result (ok, error).",
	}, []string{"result"})

	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "termlink_index_build_duration_seconds",
		Help:    "Time spent loading the whitelist and compiling the automaton.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	indexedPatterns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "termlink_index_patterns",
		Help: "Number of terms and aliases in the current snapshot.",
	})
)
