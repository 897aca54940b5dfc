package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the toolkit. A nil *Registry is valid and
// records nothing, so library callers may leave it unset.
type Registry struct {
	// Network metrics
	EdgesEmittedTotal   *prometheus.CounterVec
	PairsEvaluatedTotal *prometheus.CounterVec

	// Spatial index metrics
	PointsCountedTotal *prometheus.CounterVec
	IndexCandidates    prometheus.Histogram
	IndexBuckets       *prometheus.GaugeVec

	// Clustering metrics
	ClusterGroups prometheus.Gauge
	LinkageLeaves prometheus.Gauge

	// Operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initNetworkMetrics()
	r.initIndexMetrics()
	r.initClusterMetrics()
	r.initOperationMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
