package network

import (
	"context"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/dd0wney/cluso-geonet/pkg/layer"
	"github.com/dd0wney/cluso-geonet/pkg/logging"
	"github.com/dd0wney/cluso-geonet/pkg/matrix"
)

// GroupCriterion reports whether the node with key belongs to matrix
// row/column index.
type GroupCriterion func(key any, index int) bool

// AdjacentOptions tunes Adjacent.
type AdjacentOptions struct {
	// Criterion selects the nodes of each matrix index. Defaults to KeyEquals.
	Criterion GroupCriterion
	// MaxDistance drops edges longer than this. 0 means unbounded.
	MaxDistance float64
}

// KeyEquals selects a node for index when its key is that integer.
func KeyEquals(key any, index int) bool {
	switch k := key.(type) {
	case int:
		return k == index
	case int32:
		return int(k) == index
	case int64:
		return k == int64(index)
	case float64:
		return k == float64(index)
	default:
		return false
	}
}

// GroupContains selects a node for index when its key, rendered as text,
// contains sep+index+sep. Keys like ",3,17," list every group a node joins.
// An empty sep matches the bare index anywhere in the key.
func GroupContains(sep string) GroupCriterion {
	return func(key any, index int) bool {
		return strings.Contains(geometry.KeyString(key), sep+strconv.Itoa(index)+sep)
	}
}

func adjacentSchema() []geometry.Field {
	return []geometry.Field{
		{Name: "weight", Type: geometry.FieldDouble},
		{Name: "node_1", Type: geometry.FieldInteger},
		{Name: "node_2", Type: geometry.FieldInteger},
	}
}

// Adjacent emits, for every nonzero cell (i, j) of adj, one edge from each
// node selected for i to each node selected for j. The edges carry the cell
// weight and both matrix indices. A node selected for both i and j is paired
// with itself.
func (b *Builder) Adjacent(ctx context.Context, name string, nodes []geometry.Node, adj *matrix.Adjacency, opts AdjacentOptions) error {
	const op = "Adjacent2GeoNetwork"
	if adj == nil {
		return gerrors.New(op).Entity("matrix").Validation("adjacency matrix is required")
	}
	if err := checkMaxDistance(op, opts.MaxDistance); err != nil {
		return err
	}
	criterion := opts.Criterion
	if criterion == nil {
		criterion = KeyEquals
	}

	r, err := b.start(ctx, op, ModeAdjacent, name, adjacentSchema())
	if err != nil {
		return err
	}
	return r.finish(op, b.adjacent(r, nodes, adj, criterion, opts.MaxDistance))
}

func (b *Builder) adjacent(r *run, nodes []geometry.Node, adj *matrix.Adjacency, criterion GroupCriterion, maxDist float64) error {
	n := adj.Size()
	groups := make([][]geometry.Node, n)
	empty := 0
	for i := range groups {
		for _, node := range nodes {
			if criterion(node.Key, i) {
				groups[i] = append(groups[i], node)
			}
		}
		if len(groups[i]) == 0 {
			empty++
		}
	}
	r.log.Debug("grouped nodes by matrix index", logging.Groups(n), logging.Int("empty_groups", empty))

	for i := 0; i < n; i++ {
		row := adj.Row(i)
		for j, w := range row {
			if w == 0 {
				continue
			}
			r.pairs(len(groups[i]) * len(groups[j]))
			for _, a := range groups[i] {
				for _, c := range groups[j] {
					length := geometry.Length(a.Point, c.Point, b.Geodesic)
					if !withinDistance(length, maxDist) {
						continue
					}
					err := r.link(layer.Edge{
						Line:  geometry.Segment(a.Point, c.Point),
						Attrs: map[string]any{"weight": w, "node_1": i, "node_2": j},
					}, Endpoint{Index: a.Index}, Endpoint{Index: c.Index})
					if err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
