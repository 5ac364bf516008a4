package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tier-level hit/miss counters ("memory", "store")
	TierHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_cache_tier_hits_total",
			Help: "Total number of cache hits per tier",
		},
		[]string{"tier"},
	)

	TierMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_cache_tier_misses_total",
			Help: "Total number of cache misses per tier",
		},
		[]string{"tier"},
	)

	// Memory tier gauges and eviction counters
	MemoryEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lesson_cache_memory_entries",
			Help: "Current number of entries in the memory tier",
		},
	)

	MemoryEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_cache_memory_evictions_total",
			Help: "Memory tier evictions by reason (expired, capacity)",
		},
		[]string{"reason"},
	)

	// Resource agent strategy counters
	StrategyRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_cache_strategy_requests_total",
			Help: "Intercepted requests by strategy and byte-cache",
		},
		[]string{"strategy", "cache"},
	)

	ByteCacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_cache_bytecache_evictions_total",
			Help: "FIFO evictions per named byte-cache",
		},
		[]string{"cache"},
	)

	OfflineFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_cache_offline_fallbacks_total",
			Help: "Offline fallback responses by kind (page, synthesized)",
		},
		[]string{"kind"},
	)

	// Durable store operation latency
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lesson_cache_store_operation_duration_seconds",
			Help:    "Duration of durable store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)
)

// RecordTierHit records a cache hit for a tier.
func RecordTierHit(tier string) {
	TierHits.WithLabelValues(tier).Inc()
}

// RecordTierMiss records a cache miss for a tier.
func RecordTierMiss(tier string) {
	TierMisses.WithLabelValues(tier).Inc()
}

// UpdateMemoryEntries updates the memory tier entry gauge.
func UpdateMemoryEntries(n int) {
	MemoryEntries.Set(float64(n))
}

// RecordMemoryEviction records a memory tier eviction by reason.
func RecordMemoryEviction(reason string) {
	MemoryEvictions.WithLabelValues(reason).Inc()
}

// RecordStrategyRequest records an intercepted request.
func RecordStrategyRequest(strategy, cache string) {
	StrategyRequests.WithLabelValues(strategy, cache).Inc()
}

// RecordByteCacheEviction records a FIFO eviction in a named byte-cache.
func RecordByteCacheEviction(cache string) {
	ByteCacheEvictions.WithLabelValues(cache).Inc()
}

// RecordOfflineFallback records an offline fallback response.
func RecordOfflineFallback(kind string) {
	OfflineFallbacks.WithLabelValues(kind).Inc()
}

// TimeStoreOperation returns a timer function for a store operation.
func TimeStoreOperation(backend, operation string) func() {
	timer := prometheus.NewTimer(StoreOperationDuration.WithLabelValues(backend, operation))
	return func() {
		timer.ObserveDuration()
	}
}
