package network

import (
	"context"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/dd0wney/cluso-geonet/pkg/layer"
	"github.com/dd0wney/cluso-geonet/pkg/logging"
)

// ByLength connects every ordered pair of distinct nodes no farther apart
// than maxDist (0 means unbounded). node_1 and node_2 are the nodes' record
// positions in their source dataset.
func (b *Builder) ByLength(ctx context.Context, name string, nodes []geometry.Node, maxDist float64) error {
	const op = "GenGeoNetworkByLength"
	if err := checkMaxDistance(op, maxDist); err != nil {
		return err
	}
	schema := []geometry.Field{
		{Name: "node_1", Type: geometry.FieldInteger},
		{Name: "node_2", Type: geometry.FieldInteger},
		{Name: "length", Type: geometry.FieldDouble},
	}
	r, err := b.start(ctx, op, ModeLength, name, schema)
	if err != nil {
		return err
	}

	err = func() error {
		r.pairs(len(nodes) * (len(nodes) - 1))
		for i, a := range nodes {
			for j, c := range nodes {
				if i == j {
					continue
				}
				length := geometry.Length(a.Point, c.Point, b.Geodesic)
				if !withinDistance(length, maxDist) {
					continue
				}
				err := r.link(layer.Edge{
					Line:  geometry.Segment(a.Point, c.Point),
					Attrs: map[string]any{"node_1": a.Index, "node_2": c.Index, "length": length},
				}, Endpoint{Index: a.Index}, Endpoint{Index: c.Index})
				if err != nil {
					return err
				}
			}
		}
		return nil
	}()
	return r.finish(op, err)
}

// ByValue connects every ordered pair of distinct located records of ds whose
// field values are equal, copying the shared value onto the edge under the
// same column name and type. Values are compared exactly: two doubles that
// differ in the last bit are not linked.
func (b *Builder) ByValue(ctx context.Context, name string, ds *geometry.Dataset, field string) error {
	const op = "GenGeoNetworkByValue"
	col, ok := ds.Field(field)
	if !ok {
		return gerrors.New(op).Layer(ds.Name).Field(field).Missing("field %s not found", field)
	}
	nodes, skipped := ds.Points()
	schema := []geometry.Field{
		{Name: "node_1", Type: geometry.FieldInteger},
		{Name: "node_2", Type: geometry.FieldInteger},
		col,
	}
	r, err := b.start(ctx, op, ModeValue, name, schema)
	if err != nil {
		return err
	}
	if skipped > 0 {
		r.log.Warn("records without geometry are not linked", logging.Count(skipped))
	}

	err = func() error {
		r.pairs(len(nodes) * (len(nodes) - 1))
		for i, a := range nodes {
			va := a.Attrs[field]
			for j, c := range nodes {
				if i == j || !sameValue(va, c.Attrs[field]) {
					continue
				}
				err := r.link(layer.Edge{
					Line:  geometry.Segment(a.Point, c.Point),
					Attrs: map[string]any{"node_1": a.Index, "node_2": c.Index, field: va},
				}, Endpoint{Index: a.Index}, Endpoint{Index: c.Index})
				if err != nil {
					return err
				}
			}
		}
		return nil
	}()
	return r.finish(op, err)
}

// sameValue is exact equality over attribute values, treating all numeric
// types as one so an int 3 equals a float64 3.
func sameValue(a, b any) bool {
	fa, numA := toFloat(a)
	fb, numB := toFloat(b)
	if numA || numB {
		return numA && numB && fa == fb
	}
	switch a.(type) {
	case nil, string, bool:
		return a == b
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
