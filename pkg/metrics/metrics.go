package metrics

import (
	"io"
	"time"

	"github.com/prometheus/common/expfmt"
)

// RecordEdge records one appended edge for a network mode
func (r *Registry) RecordEdge(mode string) {
	if r == nil {
		return
	}
	r.EdgesEmittedTotal.WithLabelValues(mode).Inc()
}

// RecordPairs records n evaluated candidate pairs
func (r *Registry) RecordPairs(mode string, n int) {
	if r == nil {
		return
	}
	r.PairsEvaluatedTotal.WithLabelValues(mode).Add(float64(n))
}

// RecordPoint records the outcome for one point in containment counting:
// "counted", "uncontained", "skipped_null" or "outside_index"
func (r *Registry) RecordPoint(result string) {
	if r == nil {
		return
	}
	r.PointsCountedTotal.WithLabelValues(result).Inc()
}

// ObserveCandidates records how many polygons the index returned for a point
func (r *Registry) ObserveCandidates(n int) {
	if r == nil {
		return
	}
	r.IndexCandidates.Observe(float64(n))
}

// SetIndexShape records the bucket counts of a freshly built index
func (r *Registry) SetIndexShape(xBuckets, yBuckets int) {
	if r == nil {
		return
	}
	r.IndexBuckets.WithLabelValues("x").Set(float64(xBuckets))
	r.IndexBuckets.WithLabelValues("y").Set(float64(yBuckets))
}

// SetClusterResult records the shape of the last clustering run
func (r *Registry) SetClusterResult(leaves, groups int) {
	if r == nil {
		return
	}
	r.LinkageLeaves.Set(float64(leaves))
	r.ClusterGroups.Set(float64(groups))
}

// RecordOperation records a finished operation
func (r *Registry) RecordOperation(operation string, err error, duration time.Duration) {
	if r == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.OperationsTotal.WithLabelValues(operation, status).Inc()
	r.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// WriteText writes every gathered metric family in the Prometheus text format
func (r *Registry) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
