package network

import (
	"context"
	"math"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/dd0wney/cluso-geonet/pkg/layer"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Vectors draws a ray from origin to every located record of ds, copying
// field onto the ray. With a non-nil length every ray keeps its direction but
// is rescaled to that planar length; rays of zero length stay degenerate.
func (b *Builder) Vectors(ctx context.Context, name string, ds *geometry.Dataset, origin orb.Point, field string, length *float64) error {
	const op = "CreateVectors"
	col, err := ds.RequireField(op, field)
	if err != nil {
		return err
	}
	if length != nil && *length < 0 {
		return gerrors.New(op).Field("length").Validation("must be >= 0, got %g", *length)
	}
	nodes, _ := ds.Points()

	r, err := b.start(ctx, op, ModeVectors, name, []geometry.Field{col})
	if err != nil {
		return err
	}
	err = func() error {
		for _, n := range nodes {
			line := geometry.Segment(origin, n.Point)
			if length != nil {
				line = rescale(line, *length)
			}
			if err := r.emit(layer.Edge{Line: line, Attrs: map[string]any{field: n.Attrs[field]}}); err != nil {
				return err
			}
		}
		return nil
	}()
	return r.finish(op, err)
}

// rescale moves the end of a two-point line along its direction so the line
// has the given planar length.
func rescale(line orb.LineString, length float64) orb.LineString {
	orig := planar.Length(line)
	if orig == 0 {
		return line
	}
	from, to := line[0], line[1]
	k := length / orig
	return orb.LineString{from, {from[0] + (to[0]-from[0])*k, from[1] + (to[1]-from[1])*k}}
}

// Angle returns atan(dy/dx) of the first segment of line in radians, or 0
// for a vertical segment or a line with fewer than two vertices.
func Angle(line orb.LineString) float64 {
	if len(line) < 2 {
		return 0
	}
	dx := line[1][0] - line[0][0]
	if dx == 0 {
		return 0
	}
	return math.Atan((line[1][1] - line[0][1]) / dx)
}

// EdgeAngle writes Angle of every polyline record of ds into field and
// returns the angles in record order. Records without a line get 0.
func EdgeAngle(ds *geometry.Dataset, field string) ([]float64, error) {
	const op = "EdgeAngle"
	if err := ds.RequireType(op, geometry.TypePolyline); err != nil {
		return nil, err
	}
	if _, err := ds.RequireField(op, field); err != nil {
		return nil, err
	}
	angles := make([]float64, ds.Len())
	for i, f := range ds.Features {
		line, _ := f.Geometry.(orb.LineString)
		angles[i] = Angle(line)
		if err := ds.UpdateAttribute(i, field, angles[i]); err != nil {
			return nil, err
		}
	}
	return angles, nil
}
