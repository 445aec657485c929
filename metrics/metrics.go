// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geetyatra_recommendation_requests_total",
			Help: "Recommendation lookups by outcome",
		},
		[]string{"outcome"}, // "ok", "not_found", "index_missing", "error"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geetyatra_recommendation_duration_seconds",
			Help:    "Time spent answering a recommendation request, including artwork",
			Buckets: prometheus.DefBuckets,
		},
	)

	IndexLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geetyatra_index_loads_total",
			Help: "Neighbor index loads from disk by result",
		},
		[]string{"result"},
	)

	IndexCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "geetyatra_index_cache_entries",
			Help: "Number of cluster indexes held in memory",
		},
	)

	ArtworkLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geetyatra_artwork_lookups_total",
			Help: "Artwork lookups by source and result",
		},
		[]string{"source", "result"}, // result: "hit", "miss", "error", "rejected"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "geetyatra_circuit_breaker_state",
			Help: "Circuit breaker state per artwork source (0=closed, 1=half-open, 2=open)",
		},
		[]string{"source"},
	)
)
