// Package metrics holds the Prometheus instruments for the adapter.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the adapter.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	PipelineFailures *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
}

// New creates and registers all metrics against the given registerer. Tests
// pass a fresh prometheus.NewRegistry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "publizon_adapter_requests_total",
			Help: "Requests handled by the adapter, by status code and authorization class.",
		}, []string{"status", "class"}),
		PipelineFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "publizon_adapter_pipeline_failures_total",
			Help: "Pipeline short-circuits by failure kind.",
		}, []string{"kind"}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "publizon_adapter_upstream_duration_seconds",
			Help:    "Duration of outbound calls by datasource (smaug, userinfo, publizon, auth, credentials).",
			Buckets: prometheus.DefBuckets,
		}, []string{"datasource"}),
	}
}

// ObserveUpstream records one outbound call for a datasource.
func (m *Metrics) ObserveUpstream(datasource string, elapsed time.Duration) {
	m.UpstreamDuration.WithLabelValues(datasource).Observe(elapsed.Seconds())
}
