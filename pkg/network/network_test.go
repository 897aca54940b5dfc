package network

import (
	"context"
	"math"
	"testing"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/dd0wney/cluso-geonet/pkg/layer"
	"github.com/dd0wney/cluso-geonet/pkg/matrix"
	"github.com/dd0wney/cluso-geonet/pkg/metrics"
	"github.com/paulmach/orb"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilder() (*Builder, *layer.Memory) {
	sink := layer.NewMemory()
	return &Builder{Sink: sink}, sink
}

func linePoints(xs ...float64) []geometry.Node {
	nodes := make([]geometry.Node, len(xs))
	for i, x := range xs {
		nodes[i] = geometry.Node{Index: i, Key: i, Point: orb.Point{x, 0}}
	}
	return nodes
}

type pair struct{ a, b any }

func edgePairs(edges []layer.Edge) []pair {
	out := make([]pair, len(edges))
	for i, e := range edges {
		out[i] = pair{e.Attrs["node_1"], e.Attrs["node_2"]}
	}
	return out
}

func TestAdjacent_TwoGroups(t *testing.T) {
	b, sink := newBuilder()
	adj, err := matrix.FromRows([][]float64{{0, 1}, {1, 0}})
	require.NoError(t, err)

	err = b.Adjacent(context.Background(), "edges", linePoints(0, 5), adj, AdjacentOptions{})
	require.NoError(t, err)

	edges := sink.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, []pair{{0, 1}, {1, 0}}, edgePairs(edges))
	for _, e := range edges {
		assert.Equal(t, 1.0, e.Attrs["weight"])
	}
	assert.Equal(t, orb.LineString{{0, 0}, {5, 0}}, edges[0].Line)
}

func TestAdjacent_MaxDistanceAndGroups(t *testing.T) {
	nodes := []geometry.Node{
		{Index: 0, Key: ",0,", Point: orb.Point{0, 0}},
		{Index: 1, Key: ",0,1,", Point: orb.Point{1, 0}},
		{Index: 2, Key: ",1,", Point: orb.Point{10, 0}},
	}
	adj, err := matrix.FromRows([][]float64{{0, 2}, {0, 0}})
	require.NoError(t, err)

	b, sink := newBuilder()
	err = b.Adjacent(context.Background(), "edges", nodes, adj, AdjacentOptions{
		Criterion:   GroupContains(","),
		MaxDistance: 5,
	})
	require.NoError(t, err)

	// group 0 = {n0, n1}, group 1 = {n1, n2}; n0-n2 and n1-n2 exceed 5
	require.Len(t, sink.Edges(), 2)
	lines := []orb.LineString{sink.Edges()[0].Line, sink.Edges()[1].Line}
	assert.Contains(t, lines, orb.LineString{{0, 0}, {1, 0}})
	assert.Contains(t, lines, orb.LineString{{1, 0}, {1, 0}}, "a node in both groups pairs with itself")
	assert.Equal(t, 2.0, sink.Edges()[0].Attrs["weight"])
}

func TestAdjacent_ReportsRecordEndpoints(t *testing.T) {
	nodes := []geometry.Node{
		{Index: 0, Key: ",1,", Point: orb.Point{0, 0}},
		{Index: 1, Key: ",2,", Point: orb.Point{1, 0}},
	}
	adj, err := matrix.FromRows([][]float64{{0, 0, 0}, {0, 0, 1}, {0, 1, 0}})
	require.NoError(t, err)

	var ends [][2]Endpoint
	b, sink := newBuilder()
	b.OnEdge = func(_ layer.Edge, from, to Endpoint) { ends = append(ends, [2]Endpoint{from, to}) }
	require.NoError(t, b.Adjacent(context.Background(), "edges", nodes, adj, AdjacentOptions{Criterion: GroupContains(",")}))

	// node_1/node_2 hold matrix indices, the endpoints hold records
	assert.Equal(t, []pair{{1, 2}, {2, 1}}, edgePairs(sink.Edges()))
	assert.Equal(t, [][2]Endpoint{
		{{Index: 0}, {Index: 1}},
		{{Index: 1}, {Index: 0}},
	}, ends)
}

func TestAdjacent_Validation(t *testing.T) {
	b, _ := newBuilder()
	ctx := context.Background()

	err := b.Adjacent(ctx, "edges", linePoints(0), nil, AdjacentOptions{})
	assert.True(t, gerrors.IsValidation(err))

	err = b.Adjacent(ctx, "edges", linePoints(0), matrix.Identity(1), AdjacentOptions{MaxDistance: -1})
	assert.True(t, gerrors.IsValidation(err))

	err = (&Builder{}).Adjacent(ctx, "edges", linePoints(0), matrix.Identity(1), AdjacentOptions{})
	assert.True(t, gerrors.IsValidation(err), "missing sink")
}

func TestKeyEquals(t *testing.T) {
	assert.True(t, KeyEquals(3, 3))
	assert.True(t, KeyEquals(int64(3), 3))
	assert.True(t, KeyEquals(3.0, 3))
	assert.False(t, KeyEquals(3.5, 3))
	assert.False(t, KeyEquals("3", 3))

	assert.True(t, GroupContains(",")(",2,13,", 13))
	assert.False(t, GroupContains(",")(",2,13,", 1))
	assert.True(t, GroupContains("")("213", 1))
}

func TestByLength_Threshold(t *testing.T) {
	reg := metrics.NewRegistry()
	b, sink := newBuilder()
	b.Metrics = reg

	require.NoError(t, b.ByLength(context.Background(), "edges", linePoints(0, 1, 3), 2))

	assert.Equal(t, []pair{{0, 1}, {1, 0}, {1, 2}, {2, 1}}, edgePairs(sink.Edges()))
	for _, e := range sink.Edges() {
		assert.NotEqual(t, e.Attrs["node_1"], e.Attrs["node_2"])
		assert.LessOrEqual(t, e.Attrs["length"].(float64), 2.0)
	}

	var m dto.Metric
	require.NoError(t, reg.EdgesEmittedTotal.WithLabelValues(ModeLength).Write(&m))
	assert.Equal(t, 4.0, m.Counter.GetValue())
}

func TestByLength_Unbounded(t *testing.T) {
	b, sink := newBuilder()
	require.NoError(t, b.ByLength(context.Background(), "edges", linePoints(0, 1, 3), 0))
	assert.Len(t, sink.Edges(), 6)
}

func TestByLength_Geodesic(t *testing.T) {
	b, sink := newBuilder()
	b.Geodesic = true
	nodes := []geometry.Node{
		{Index: 0, Point: orb.Point{0, 0}},
		{Index: 1, Point: orb.Point{1, 0}},
	}
	require.NoError(t, b.ByLength(context.Background(), "edges", nodes, 0))
	require.Len(t, sink.Edges(), 2)
	assert.InDelta(t, 111250, sink.Edges()[0].Attrs["length"], 200)
}

func villages() *geometry.Dataset {
	ds := geometry.NewDataset("villages", geometry.TypePoint,
		geometry.Field{Name: "clan", Type: geometry.FieldText},
		geometry.Field{Name: "score", Type: geometry.FieldDouble},
	)
	ds.Add(10, orb.Point{0, 0}, map[string]any{"clan": "li", "score": 1.0})
	ds.Add(11, orb.Point{1, 0}, map[string]any{"clan": "wang", "score": 0.1 + 0.2})
	ds.Add(12, orb.Point{2, 0}, map[string]any{"clan": "li", "score": 0.3})
	ds.Add(13, nil, map[string]any{"clan": "li"})
	return ds
}

func TestByValue(t *testing.T) {
	b, sink := newBuilder()
	require.NoError(t, b.ByValue(context.Background(), "edges", villages(), "clan"))

	assert.Equal(t, []pair{{0, 2}, {2, 0}}, edgePairs(sink.Edges()))
	assert.Equal(t, "li", sink.Edges()[0].Attrs["clan"])
	assert.Equal(t, geometry.Field{Name: "clan", Type: geometry.FieldText}, sink.Schema[2])
}

func TestByValue_ExactFloatEquality(t *testing.T) {
	b, sink := newBuilder()
	require.NoError(t, b.ByValue(context.Background(), "edges", villages(), "score"))
	assert.Empty(t, sink.Edges(), "0.1+0.2 and 0.3 are not linked")
}

func TestByValue_MissingField(t *testing.T) {
	b, _ := newBuilder()
	err := b.ByValue(context.Background(), "edges", villages(), "nope")
	require.Error(t, err)
	assert.True(t, gerrors.IsValidation(err))
	assert.True(t, gerrors.IsLookup(err))
}

func TestSameValue(t *testing.T) {
	assert.True(t, sameValue(3, 3.0))
	assert.True(t, sameValue("a", "a"))
	assert.True(t, sameValue(nil, nil))
	assert.False(t, sameValue(nil, 0))
	assert.False(t, sameValue("1", 1))
	assert.False(t, sameValue([]int{1}, []int{1}))
}

func TestBipartite(t *testing.T) {
	z1, z2, m1, m2 := 5.0, 7.0, 1.0, 2.0
	homes := geometry.NewDataset("homes", geometry.TypePoint, geometry.Field{Name: "pop", Type: geometry.FieldInteger})
	homes.Add(1, orb.Point{0, 0}, map[string]any{"pop": 10})
	homes.Add(2, orb.Point{0, 3}, map[string]any{"pop": 20})
	homes.Features[0].Z, homes.Features[0].M = &z1, &m1

	markets := geometry.NewDataset("markets", geometry.TypePoint, geometry.Field{Name: "size", Type: geometry.FieldInteger})
	markets.Add("m1", orb.Point{4, 0}, map[string]any{"size": 2})
	markets.Features[0].Z, markets.Features[0].M = &z2, &m2

	criterion := func(aux1, aux2 []any, line orb.LineString) bool {
		return aux1[0].(int) > 15 || line[0][1] == 0
	}
	calc := func(aux1, aux2 []any) float64 {
		return float64(aux1[0].(int) * aux2[0].(int))
	}

	b, sink := newBuilder()
	err := b.Bipartite(context.Background(), "edges",
		BipartiteInput{Dataset: homes, Fields: []string{"pop"}},
		BipartiteInput{Dataset: markets, Fields: []string{"size"}},
		criterion, calc)
	require.NoError(t, err)

	edges := sink.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, []pair{{"1", "m1"}, {"2", "m1"}}, edgePairs(edges), "mixed keys become text")
	assert.Equal(t, 4.0, edges[0].Attrs["length"])
	assert.Equal(t, 5.0, edges[1].Attrs["length"])
	assert.Equal(t, 20.0, edges[0].Attrs["calc"])
	assert.Equal(t, 40.0, edges[1].Attrs["calc"])
	assert.Equal(t, []float64{5, 7}, edges[0].Z)
	assert.Equal(t, []float64{1, 2}, edges[0].M)
	assert.Nil(t, edges[1].Z)
}

func TestBipartite_ReportsSides(t *testing.T) {
	a := geometry.NewDataset("a", geometry.TypePoint)
	a.Add("x", nil, nil)
	a.Add("y", orb.Point{0, 0}, nil)
	c := geometry.NewDataset("c", geometry.TypePoint)
	c.Add("z", orb.Point{3, 4}, nil)

	var ends [][2]Endpoint
	b, _ := newBuilder()
	b.OnEdge = func(_ layer.Edge, from, to Endpoint) { ends = append(ends, [2]Endpoint{from, to}) }
	require.NoError(t, b.Bipartite(context.Background(), "edges", BipartiteInput{Dataset: a}, BipartiteInput{Dataset: c}, nil, nil))

	assert.Equal(t, [][2]Endpoint{{{Side: 0, Index: 1}, {Side: 1, Index: 0}}}, ends)
}

func TestBipartite_Defaults(t *testing.T) {
	a := geometry.NewDataset("a", geometry.TypePoint)
	a.Add(1, orb.Point{0, 0}, nil)
	a.Add(2, orb.Point{1, 1}, nil)
	c := geometry.NewDataset("c", geometry.TypePoint)
	c.Add(7.0, orb.Point{2, 2}, nil)

	b, sink := newBuilder()
	require.NoError(t, b.Bipartite(context.Background(), "edges", BipartiteInput{Dataset: a}, BipartiteInput{Dataset: c}, nil, nil))
	require.Len(t, sink.Edges(), 2)
	assert.Equal(t, geometry.FieldInteger, sink.Schema[1].Type)
	assert.Equal(t, int64(7), sink.Edges()[0].Attrs["node_2"])
	assert.Equal(t, 0.0, sink.Edges()[0].Attrs["calc"])

	b2, _ := newBuilder()
	err := b2.Bipartite(context.Background(), "edges", BipartiteInput{Dataset: a, Fields: []string{"x"}}, BipartiteInput{Dataset: c}, nil, nil)
	assert.True(t, gerrors.IsLookup(err))
}

func TestVectors(t *testing.T) {
	b, sink := newBuilder()
	ds := villages()
	length := 10.0
	require.NoError(t, b.Vectors(context.Background(), "rays", ds, orb.Point{0, 0}, "clan", &length))

	edges := sink.Edges()
	require.Len(t, edges, 3, "unlocated record is skipped")
	assert.Equal(t, orb.LineString{{0, 0}, {0, 0}}, edges[0].Line, "zero-length ray stays put")
	assert.Equal(t, orb.LineString{{0, 0}, {10, 0}}, edges[1].Line)
	assert.Equal(t, "wang", edges[1].Attrs["clan"])

	b2, sink2 := newBuilder()
	require.NoError(t, b2.Vectors(context.Background(), "rays", ds, orb.Point{0, 1}, "clan", nil))
	assert.Equal(t, orb.LineString{{0, 1}, {2, 0}}, sink2.Edges()[2].Line)
}

func TestEdgeAngle(t *testing.T) {
	ds := geometry.NewDataset("edges", geometry.TypePolyline, geometry.Field{Name: "angle", Type: geometry.FieldDouble})
	ds.Add(0, orb.LineString{{0, 0}, {1, 1}}, nil)
	ds.Add(1, orb.LineString{{0, 0}, {0, 5}}, nil)
	ds.Add(2, orb.LineString{{2, 0}, {0, 2}}, nil)
	ds.Add(3, nil, nil)

	angles, err := EdgeAngle(ds, "angle")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{math.Pi / 4, 0, -math.Pi / 4, 0}, angles, 1e-12)
	assert.InDelta(t, math.Pi/4, ds.Features[0].Attrs["angle"], 1e-12)

	_, err = EdgeAngle(villages(), "clan")
	assert.True(t, gerrors.IsValidation(err))
	_, err = EdgeAngle(ds, "nope")
	assert.True(t, gerrors.IsLookup(err))
}
