package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initClusterMetrics() {
	r.ClusterGroups = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "geonet_cluster_groups",
			Help: "Number of groups produced by the last dendrogram cut",
		},
	)

	r.LinkageLeaves = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "geonet_linkage_leaves",
			Help: "Number of leaves in the last linkage tree",
		},
	)
}

func (r *Registry) initOperationMetrics() {
	r.OperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "geonet_operations_total",
			Help: "Toolkit operations executed, by status",
		},
		[]string{"operation", "status"},
	)

	r.OperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geonet_operation_duration_seconds",
			Help:    "Toolkit operation duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
		[]string{"operation"},
	)
}
