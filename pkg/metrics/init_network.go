package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initNetworkMetrics() {
	r.EdgesEmittedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "geonet_edges_emitted_total",
			Help: "Total number of edges appended to output layers",
		},
		[]string{"mode"},
	)

	r.PairsEvaluatedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "geonet_pairs_evaluated_total",
			Help: "Total number of candidate node pairs tested for inclusion",
		},
		[]string{"mode"},
	)
}
