package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics contains Prometheus metrics for the external media
// providers, labelled by provider name.
type ProviderMetrics struct {
	Requests        *prometheus.CounterVec
	Errors          *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResultsReturned *prometheus.HistogramVec
	registry        *prometheus.Registry
}

// NewProviderMetrics creates a new instance of ProviderMetrics and registers
// it with the given registry.
func NewProviderMetrics(registry *prometheus.Registry) (*ProviderMetrics, error) {
	m := &ProviderMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register Provider metrics: %w", err)
	}
	return m, nil
}

func (m *ProviderMetrics) initMetrics() {
	m.Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_provider_requests_total",
		Help: "Total number of search requests issued per provider.",
	}, []string{"provider"})

	m.Errors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_provider_errors_total",
		Help: "Total number of failed searches per provider.",
	}, []string{"provider"})

	m.RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "media_provider_request_duration_seconds",
		Help:    "Duration of provider searches in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"provider"})

	m.ResultsReturned = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "media_provider_results_returned",
		Help:    "Number of results returned per provider search.",
		Buckets: prometheus.LinearBuckets(0, 2, 8),
	}, []string{"provider"})
}

// IncrementRequests increases the request counter for a provider.
func (m *ProviderMetrics) IncrementRequests(provider string) {
	m.Requests.WithLabelValues(provider).Inc()
}

// IncrementErrors increases the error counter for a provider.
func (m *ProviderMetrics) IncrementErrors(provider string) {
	m.Errors.WithLabelValues(provider).Inc()
}

// ObserveRequestDuration records how long a provider search took.
func (m *ProviderMetrics) ObserveRequestDuration(provider string, durationSeconds float64) {
	m.RequestDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// ObserveResults records how many results a provider search returned.
func (m *ProviderMetrics) ObserveResults(provider string, count float64) {
	m.ResultsReturned.WithLabelValues(provider).Observe(count)
}

// Describe implements the prometheus.Collector interface.
func (m *ProviderMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Requests.Describe(ch)
	m.Errors.Describe(ch)
	m.RequestDuration.Describe(ch)
	m.ResultsReturned.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *ProviderMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Requests.Collect(ch)
	m.Errors.Collect(ch)
	m.RequestDuration.Collect(ch)
	m.ResultsReturned.Collect(ch)
}
