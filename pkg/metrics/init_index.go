package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initIndexMetrics() {
	r.PointsCountedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "geonet_points_counted_total",
			Help: "Points processed by containment counting, by outcome",
		},
		[]string{"result"},
	)

	r.IndexCandidates = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geonet_index_candidates",
			Help:    "Candidate polygons returned by the bucket index per point",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
	)

	r.IndexBuckets = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "geonet_index_buckets",
			Help: "Number of buckets in the most recently built index",
		},
		[]string{"axis"},
	)
}
