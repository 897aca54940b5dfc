package network

import (
	"context"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/layer"
	"github.com/paulmach/orb"
)

// PairCriterion decides whether a bipartite pair is linked, given the
// auxiliary attribute values of both nodes and the candidate edge.
type PairCriterion func(aux1, aux2 []any, line orb.LineString) bool

// PairCalc computes the calc attribute of a linked bipartite pair.
type PairCalc func(aux1, aux2 []any) float64

// BipartiteInput is one side of a bipartite build.
type BipartiteInput struct {
	Dataset *geometry.Dataset
	Fields  []string // auxiliary attributes handed to the criterion, in order
}

// Bipartite links every pair (a, b) with a from side1 and b from side2 for
// which criterion holds. A nil criterion links every pair; a nil calc stores 0.
// node_1 and node_2 are the record keys. Z and M values of both endpoints are
// carried onto the edge when both nodes have them. There is no distance bound.
func (b *Builder) Bipartite(ctx context.Context, name string, side1, side2 BipartiteInput, criterion PairCriterion, calc PairCalc) error {
	const op = "Bipartite"
	for _, side := range []BipartiteInput{side1, side2} {
		for _, f := range side.Fields {
			if _, err := side.Dataset.RequireField(op, f); err != nil {
				return err
			}
		}
	}
	if criterion == nil {
		criterion = func([]any, []any, orb.LineString) bool { return true }
	}
	if calc == nil {
		calc = func([]any, []any) float64 { return 0 }
	}

	nodes1, _ := side1.Dataset.Points()
	nodes2, _ := side2.Dataset.Points()
	idType := keyFieldType(nodes1, nodes2)
	schema := []geometry.Field{
		{Name: "length", Type: geometry.FieldDouble},
		{Name: "node_1", Type: idType},
		{Name: "node_2", Type: idType},
		{Name: "calc", Type: geometry.FieldDouble},
	}
	r, err := b.start(ctx, op, ModeBipartite, name, schema)
	if err != nil {
		return err
	}

	err = func() error {
		r.pairs(len(nodes1) * len(nodes2))
		for _, a := range nodes1 {
			aux1 := auxValues(a, side1.Fields)
			for _, c := range nodes2 {
				aux2 := auxValues(c, side2.Fields)
				line := geometry.Segment(a.Point, c.Point)
				if !criterion(aux1, aux2, line) {
					continue
				}
				e := layer.Edge{
					Line: line,
					Attrs: map[string]any{
						"length": geometry.LineLength(line, b.Geodesic),
						"node_1": keyValue(a.Key, idType),
						"node_2": keyValue(c.Key, idType),
						"calc":   calc(aux1, aux2),
					},
				}
				if a.Z != nil && c.Z != nil {
					e.Z = []float64{*a.Z, *c.Z}
				}
				if a.M != nil && c.M != nil {
					e.M = []float64{*a.M, *c.M}
				}
				if err := r.link(e, Endpoint{Index: a.Index}, Endpoint{Side: 1, Index: c.Index}); err != nil {
					return err
				}
			}
		}
		return nil
	}()
	return r.finish(op, err)
}

func auxValues(n geometry.Node, fields []string) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = n.Attrs[f]
	}
	return out
}
