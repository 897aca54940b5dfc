package spatialindex

import (
	"strings"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/dd0wney/cluso-geonet/pkg/logging"
	"github.com/dd0wney/cluso-geonet/pkg/metrics"
	"github.com/paulmach/orb"
)

// Counter counts points per polygon. The zero value is ready to use.
type Counter struct {
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// Count is Counter{}.Count.
func Count(points, polygons *geometry.Dataset, counterField string) ([]int, error) {
	return (&Counter{}).Count(points, polygons, counterField)
}

// Count counts, for every polygon record, how many point records it contains,
// writes each count into counterField of the polygon dataset and returns the
// counts in polygon order. Points without geometry are skipped. Points whose
// bucket lies outside the index are not counted; that undercount is a known
// property of the index, reported through metrics.
func (c *Counter) Count(points, polygons *geometry.Dataset, counterField string) ([]int, error) {
	const op = "ContainsCounter"
	log := logging.OrNop(c.Logger).With(logging.Operation(op))
	timer := logging.StartTimer(log, op, logging.Layer(polygons.Name))

	counts, err := c.count(points, polygons, counterField, log)
	c.Metrics.RecordOperation(op, err, timer.Elapsed())
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	timer.End(logging.Count(len(counts)))
	return counts, nil
}

func (c *Counter) count(points, polygons *geometry.Dataset, counterField string, log logging.Logger) ([]int, error) {
	const op = "ContainsCounter"
	if err := points.RequireType(op, geometry.TypePoint); err != nil {
		return nil, err
	}
	if err := polygons.RequireType(op, geometry.TypePolygon); err != nil {
		return nil, err
	}
	field, ok := polygons.Field(counterField)
	if !ok {
		return nil, gerrors.New(op).Layer(polygons.Name).Field(counterField).Missing("polygon layer has no counter field")
	}
	if field.Type != geometry.FieldInteger {
		return nil, gerrors.New(op).Layer(polygons.Name).Field(counterField).Validation("counter field is %s, not Integer", field.Type)
	}

	polys, err := polygons.Polygons()
	if err != nil {
		return nil, err
	}
	idx := Build(polys)
	xb, yb := idx.Shape()
	c.Metrics.SetIndexShape(xb, yb)

	counts := make([]int, len(polys))
	for i, f := range points.Features {
		if f.Geometry == nil {
			log.Debug("skipping point without geometry", logging.Record(i))
			c.Metrics.RecordPoint("skipped_null")
			continue
		}
		pt := geometry.Centroid(f.Geometry)
		candidates, inRange := idx.Candidates(pt)
		if !inRange {
			c.Metrics.RecordPoint("outside_index")
			continue
		}
		c.Metrics.ObserveCandidates(len(candidates))
		hit := false
		for _, p := range candidates {
			if polys[p].Contains(pt) {
				counts[p]++
				hit = true
			}
		}
		if hit {
			c.Metrics.RecordPoint("counted")
		} else {
			c.Metrics.RecordPoint("uncontained")
		}
	}

	for i, n := range counts {
		if err := polygons.UpdateAttribute(i, counterField, n); err != nil {
			return nil, err
		}
	}
	return counts, nil
}

// NaiveCount tests every point against every polygon. It is the reference
// the bucket index must agree with.
func NaiveCount(points []orb.Point, polygons []geometry.Polygon) []int {
	counts := make([]int, len(polygons))
	for _, pt := range points {
		for i, p := range polygons {
			if p.Contains(pt) {
				counts[i]++
			}
		}
	}
	return counts
}

// Record writes, for every point record, the ids of all polygons containing
// it into recordField as ",id1,id2,". The polygon id is read from idField, or
// the polygon key when idField is empty. Points without geometry get ",".
func Record(points, regions *geometry.Dataset, recordField, idField string) error {
	const op = "ContainsRecorder"
	if _, err := points.RequireField(op, recordField); err != nil {
		return err
	}
	if idField != "" {
		if _, err := regions.RequireField(op, idField); err != nil {
			return err
		}
	}
	polys, err := regions.Polygons()
	if err != nil {
		return err
	}

	for i, f := range points.Features {
		var b strings.Builder
		b.WriteString(",")
		if f.Geometry != nil {
			pt := geometry.Centroid(f.Geometry)
			for _, p := range polys {
				if !p.Contains(pt) {
					continue
				}
				id := p.Key
				if idField != "" {
					id = regions.Features[p.Index].Attrs[idField]
				}
				b.WriteString(geometry.KeyString(id))
				b.WriteString(",")
			}
		}
		if err := points.UpdateAttribute(i, recordField, b.String()); err != nil {
			return err
		}
	}
	return nil
}
