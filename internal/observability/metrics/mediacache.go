// Package metrics provides custom Prometheus metrics for the media service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// MediaCacheMetrics contains all Prometheus metrics related to the
// destination media cache.
type MediaCacheMetrics struct {
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	Refreshes       prometheus.Counter
	RefreshErrors   prometheus.Counter
	RefreshDuration prometheus.Histogram
	ItemsCached     prometheus.Histogram
	registry        *prometheus.Registry
}

// NewMediaCacheMetrics creates a new instance of MediaCacheMetrics and
// registers it with the given registry.
func NewMediaCacheMetrics(registry *prometheus.Registry) (*MediaCacheMetrics, error) {
	m := &MediaCacheMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register MediaCache metrics: %w", err)
	}
	return m, nil
}

func (m *MediaCacheMetrics) initMetrics() {
	m.CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "media_cache_hits_total",
		Help: "Total number of reads served from fresh cached media.",
	})

	m.CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "media_cache_misses_total",
		Help: "Total number of reads that found the cache empty or stale.",
	})

	m.Refreshes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "media_cache_refreshes_total",
		Help: "Total number of full cache refreshes performed.",
	})

	m.RefreshErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "media_cache_refresh_errors_total",
		Help: "Total number of cache refreshes that failed to persist.",
	})

	m.RefreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "media_cache_refresh_duration_seconds",
		Help:    "Duration of full cache refreshes in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	m.ItemsCached = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "media_cache_items_per_refresh",
		Help:    "Number of media items written per cache refresh.",
		Buckets: prometheus.LinearBuckets(0, 5, 8),
	})
}

// IncrementCacheHits increases the cache hit counter by one.
func (m *MediaCacheMetrics) IncrementCacheHits() {
	m.CacheHits.Inc()
}

// IncrementCacheMisses increases the cache miss counter by one.
func (m *MediaCacheMetrics) IncrementCacheMisses() {
	m.CacheMisses.Inc()
}

// IncrementRefreshes increases the refresh counter by one.
func (m *MediaCacheMetrics) IncrementRefreshes() {
	m.Refreshes.Inc()
}

// IncrementRefreshErrors increases the refresh error counter by one.
func (m *MediaCacheMetrics) IncrementRefreshErrors() {
	m.RefreshErrors.Inc()
}

// ObserveRefreshDuration records how long a full refresh took.
func (m *MediaCacheMetrics) ObserveRefreshDuration(durationSeconds float64) {
	m.RefreshDuration.Observe(durationSeconds)
}

// ObserveItemsCached records how many items a refresh wrote.
func (m *MediaCacheMetrics) ObserveItemsCached(count float64) {
	m.ItemsCached.Observe(count)
}

// Describe implements the prometheus.Collector interface.
func (m *MediaCacheMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.CacheHits.Describe(ch)
	m.CacheMisses.Describe(ch)
	m.Refreshes.Describe(ch)
	m.RefreshErrors.Describe(ch)
	m.RefreshDuration.Describe(ch)
	m.ItemsCached.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *MediaCacheMetrics) Collect(ch chan<- prometheus.Metric) {
	m.CacheHits.Collect(ch)
	m.CacheMisses.Collect(ch)
	m.Refreshes.Collect(ch)
	m.RefreshErrors.Collect(ch)
	m.RefreshDuration.Collect(ch)
	m.ItemsCached.Collect(ch)
}
