package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// GeometryType is the shape type shared by all features of a dataset.
type GeometryType string

const (
	TypeUnknown  GeometryType = ""
	TypePoint    GeometryType = "Point"
	TypePolyline GeometryType = "Polyline"
	TypePolygon  GeometryType = "Polygon"
)

// FieldType is the declared type of an attribute column.
type FieldType string

const (
	FieldInteger FieldType = "Integer"
	FieldDouble  FieldType = "Double"
	FieldText    FieldType = "String"
)

// Field describes one attribute column.
type Field struct {
	Name string
	Type FieldType
}

// Feature is one record of a dataset. Geometry is nil for unlocated records.
type Feature struct {
	Key      any
	Geometry orb.Geometry
	Z, M     *float64 // point features only
	Attrs    map[string]any

	// VertexZ and VertexM hold per-vertex measures of a line feature.
	VertexZ, VertexM []float64
}

// Node is a read-only snapshot of a located point feature.
type Node struct {
	Index int // position in the source dataset
	Key   any
	Point orb.Point
	Z, M  *float64
	Attrs map[string]any
}

// Polygon pairs a polygonal geometry with its cached extent.
type Polygon struct {
	Index  int
	Key    any
	Shape  orb.Geometry // orb.Polygon or orb.MultiPolygon; nil if the record has no shape
	extent orb.Bound
}

// Extent returns the axis-aligned bounding box of the polygon.
func (p Polygon) Extent() orb.Bound {
	return p.extent
}

// Empty reports whether the record carries no polygon.
func (p Polygon) Empty() bool {
	return p.Shape == nil
}

// Contains reports whether pt lies inside the polygon. Points on the boundary
// are treated as inside, following planar.PolygonContains.
func (p Polygon) Contains(pt orb.Point) bool {
	switch g := p.Shape.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	case orb.Bound:
		return g.Contains(pt)
	default:
		return false
	}
}

// NewPolygon wraps g. ok is false when g is not polygonal.
func NewPolygon(index int, key any, g orb.Geometry) (Polygon, bool) {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon, orb.Bound:
		return Polygon{Index: index, Key: key, Shape: g, extent: g.Bound()}, true
	case nil:
		return Polygon{Index: index, Key: key}, true
	default:
		return Polygon{}, false
	}
}

// FirstPoint returns the first vertex of g, or its coordinates for a point.
func FirstPoint(g orb.Geometry) (orb.Point, bool) {
	switch v := g.(type) {
	case orb.Point:
		return v, true
	case orb.MultiPoint:
		if len(v) > 0 {
			return v[0], true
		}
	case orb.LineString:
		if len(v) > 0 {
			return v[0], true
		}
	case orb.MultiLineString:
		if len(v) > 0 && len(v[0]) > 0 {
			return v[0][0], true
		}
	case orb.Polygon:
		if len(v) > 0 && len(v[0]) > 0 {
			return v[0][0], true
		}
	case orb.MultiPolygon:
		if len(v) > 0 && len(v[0]) > 0 && len(v[0][0]) > 0 {
			return v[0][0][0], true
		}
	}
	return orb.Point{}, false
}

// Centroid returns the planar centroid of g.
func Centroid(g orb.Geometry) orb.Point {
	if p, ok := g.(orb.Point); ok {
		return p
	}
	c, _ := planar.CentroidArea(g)
	return c
}

// Segment builds the two-vertex polyline between a and b.
func Segment(a, b orb.Point) orb.LineString {
	return orb.LineString{a, b}
}

// Length returns the length of the segment a-b. With geodesic set the points
// are read as lon/lat degrees and the haversine length in metres is returned.
func Length(a, b orb.Point, geodesic bool) float64 {
	if geodesic {
		return geo.Distance(a, b)
	}
	return planar.Distance(a, b)
}

// LineLength returns the length of ls, planar or geodesic.
func LineLength(ls orb.LineString, geodesic bool) float64 {
	if geodesic {
		return geo.Length(ls)
	}
	return planar.Length(ls)
}
