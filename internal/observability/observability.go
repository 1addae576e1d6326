// Package observability provides metrics collection for the media service.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wayfarerhq/wayfarer-go/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry   *prometheus.Registry
	MediaCache *metrics.MediaCacheMetrics
	Provider   *metrics.ProviderMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors against a fresh registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	mediaCacheMetrics, err := metrics.NewMediaCacheMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create MediaCache metrics: %w", err)
	}

	providerMetrics, err := metrics.NewProviderMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Provider metrics: %w", err)
	}

	return &Metrics{
		registry:   registry,
		MediaCache: mediaCacheMetrics,
		Provider:   providerMetrics,
	}, nil
}

// Handler returns an HTTP handler that serves the metrics registry in
// Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
