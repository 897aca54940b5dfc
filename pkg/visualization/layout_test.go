package visualization

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/layer"
	"github.com/paulmach/orb"
)

func chainGraph() *Graph {
	g := NewGraph([]geometry.Node{
		{Index: 0, Key: "a", Point: orb.Point{0, 0}, Attrs: map[string]any{"name": "Alice"}},
		{Index: 1, Key: "b", Point: orb.Point{1, 0}},
		{Index: 2, Key: "c", Point: orb.Point{2, 0}},
	})
	g.Connect(0, 0, 0, 1, 1)
	g.Connect(0, 1, 0, 2, 1)
	return g
}

// TestForceDirectedLayout tests the force-directed layout algorithm
func TestForceDirectedLayout(t *testing.T) {
	layout := NewForceDirectedLayout(&LayoutConfig{
		Width:      800,
		Height:     600,
		Iterations: 50,
		Seed:       7,
	})

	positions, err := layout.ComputeLayout(chainGraph())
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}

	// Verify all nodes have positions
	if len(positions) != 3 {
		t.Errorf("Expected 3 positions, got %d", len(positions))
	}

	// Verify positions are within bounds
	for id, pos := range positions {
		if pos.X < 0 || pos.X > 800 {
			t.Errorf("Node %d X position %f out of bounds", id, pos.X)
		}
		if pos.Y < 0 || pos.Y > 600 {
			t.Errorf("Node %d Y position %f out of bounds", id, pos.Y)
		}
	}

	// Node 0 and 2 are not directly linked, should be furthest apart
	dist01 := distance(positions[0], positions[1])
	dist12 := distance(positions[1], positions[2])
	dist02 := distance(positions[0], positions[2])
	if dist02 < dist01 || dist02 < dist12 {
		t.Error("Force-directed layout did not separate unlinked nodes properly")
	}

	again, _ := layout.ComputeLayout(chainGraph())
	if again[2] != positions[2] {
		t.Error("Same seed should give the same layout")
	}
}

// TestCircularLayout tests circular layout algorithm
func TestCircularLayout(t *testing.T) {
	nodes := make([]geometry.Node, 6)
	for i := range nodes {
		nodes[i] = geometry.Node{Index: i * 2}
	}
	layout := NewCircularLayout(&LayoutConfig{Width: 800, Height: 800})

	positions, err := layout.ComputeLayout(&Graph{Nodes: nodes})
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}
	if len(positions) != 6 {
		t.Fatalf("Expected 6 positions, got %d", len(positions))
	}

	// Verify all nodes are the same distance from center
	center := Position{X: 400, Y: 400}
	for id, pos := range positions {
		if id < 0 || id >= 6 {
			t.Errorf("Positions should be keyed by slot, got %d", id)
		}
		if math.Abs(distance(pos, center)-350) > 1e-9 {
			t.Errorf("Circular layout not uniform: node %d at distance %f", id, distance(pos, center))
		}
	}
}

func TestGeographicLayout(t *testing.T) {
	layout := NewGeographicLayout(&LayoutConfig{Width: 200, Height: 100, Padding: 10})
	g := &Graph{Nodes: []geometry.Node{
		{Index: 0, Point: orb.Point{0, 0}},
		{Index: 1, Point: orb.Point{10, 5}},
	}}

	positions, err := layout.ComputeLayout(g)
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}

	// north up: the higher latitude gets the smaller canvas Y
	if positions[0] != (Position{X: 10, Y: 90}) {
		t.Errorf("Unexpected position for node 0: %+v", positions[0])
	}
	if positions[1] != (Position{X: 190, Y: 10}) {
		t.Errorf("Unexpected position for node 1: %+v", positions[1])
	}
}

// TestLayoutNormalization tests that positions are normalized correctly
func TestLayoutNormalization(t *testing.T) {
	positions := map[int]Position{
		1: {X: -100, Y: -100},
		2: {X: 1000, Y: 1000},
		3: {X: 500, Y: 500},
	}

	normalized := normalizePositions(positions, 800, 600, 50)
	for id, pos := range normalized {
		if pos.X < 50 || pos.X > 750 {
			t.Errorf("Node %d X position %f not within padded bounds", id, pos.X)
		}
		if pos.Y < 50 || pos.Y > 550 {
			t.Errorf("Node %d Y position %f not within padded bounds", id, pos.Y)
		}
	}

	flat := normalizePositions(map[int]Position{1: {X: 0, Y: 3}, 2: {X: 10, Y: 3}}, 800, 600, 50)
	if flat[1].Y != 300 {
		t.Errorf("Collapsed axis should be centred, got Y=%f", flat[1].Y)
	}
}

// TestEmptyGraph tests layouts on an empty graph
func TestEmptyGraph(t *testing.T) {
	layouts := []Layout{
		NewForceDirectedLayout(nil),
		NewCircularLayout(nil),
		NewGeographicLayout(nil),
	}
	for _, layout := range layouts {
		positions, err := layout.ComputeLayout(&Graph{})
		if err != nil {
			t.Fatalf("Layout failed on empty graph: %v", err)
		}
		if len(positions) != 0 {
			t.Errorf("Expected 0 positions for empty graph, got %d", len(positions))
		}
	}
}

// TestSingleNodeLayout tests that a single node is centred
func TestSingleNodeLayout(t *testing.T) {
	layout := NewForceDirectedLayout(&LayoutConfig{Width: 800, Height: 600})
	positions, err := layout.ComputeLayout(&Graph{Nodes: []geometry.Node{{Index: 4}}})
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	if positions[0] != (Position{X: 400, Y: 300}) {
		t.Errorf("Single node should be centred, got %+v", positions[0])
	}
}

func TestNewGraph(t *testing.T) {
	g := chainGraph()
	if len(g.Links) != 2 {
		t.Fatalf("Expected 2 links, got %d", len(g.Links))
	}
	if g.Links[1] != (Link{From: 1, To: 2, Weight: 1}) {
		t.Errorf("Unexpected link: %+v", g.Links[1])
	}
	if g.Connect(0, 0, 0, 9, 1) {
		t.Error("Connect should refuse a record that is not a node")
	}
}

func TestNewGraph_TwoSets(t *testing.T) {
	// records 0 and 3 of the first set, record 0 of the second
	g := NewGraph(
		[]geometry.Node{{Index: 0, Key: "h0"}, {Index: 3, Key: "h3"}},
		[]geometry.Node{{Index: 0, Key: "m0"}},
	)
	if len(g.Nodes) != 3 {
		t.Fatalf("Expected 3 nodes, got %d", len(g.Nodes))
	}
	if !g.Connect(0, 3, 1, 0, 2.5) || !g.Connect(0, 0, 1, 0, 1) {
		t.Fatal("Connect should accept both sets")
	}
	want := []Link{{From: 1, To: 2, Weight: 2.5}, {From: 0, To: 2, Weight: 1}}
	for i, l := range want {
		if g.Links[i] != l {
			t.Errorf("Link %d: expected %+v, got %+v", i, l, g.Links[i])
		}
	}
	if g.Connect(1, 3, 0, 0, 1) {
		t.Error("Record 3 only exists in the first set")
	}

	data, err := (&Visualization{Graph: g, Positions: map[int]Position{}}).ExportJSON()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.Contains(string(data), `"id":2,"side":1,"index":0,"key":"m0"`) {
		t.Errorf("Second set node not exported by slot: %s", data)
	}
}

func TestEdgeWeight(t *testing.T) {
	tests := []struct {
		attrs map[string]any
		want  float64
	}{
		{map[string]any{"weight": 2.0, "length": 9.0}, 2},
		{map[string]any{"length": 9.0}, 9},
		{map[string]any{"weight": 3}, 3},
		{map[string]any{"node_1": 1}, 1},
	}
	for _, tt := range tests {
		if got := EdgeWeight(layer.Edge{Attrs: tt.attrs}); got != tt.want {
			t.Errorf("EdgeWeight(%v) = %g, want %g", tt.attrs, got, tt.want)
		}
	}
}

// TestVisualizationExport tests JSON export
func TestVisualizationExport(t *testing.T) {
	g := chainGraph()
	positions, _ := NewCircularLayout(nil).ComputeLayout(g)
	viz := &Visualization{Graph: g, Positions: positions}

	data, err := viz.ExportJSON()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.Contains(string(data), `"Alice"`) {
		t.Error("Exported JSON should carry node attributes")
	}

	var decoded struct {
		Nodes []struct {
			ID  int    `json:"id"`
			Key string `json:"key"`
		} `json:"nodes"`
		Edges []Link `json:"edges"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Exported JSON does not parse: %v", err)
	}
	if len(decoded.Nodes) != 3 || len(decoded.Edges) != 2 {
		t.Errorf("Expected 3 nodes and 2 edges, got %d and %d", len(decoded.Nodes), len(decoded.Edges))
	}
	if decoded.Nodes[2].Key != "c" {
		t.Errorf("Expected key c, got %q", decoded.Nodes[2].Key)
	}
}

// Helper function to calculate distance between two positions
func distance(p1, p2 Position) float64 {
	dx := p1.X - p2.X
	dy := p1.Y - p2.Y
	return math.Sqrt(dx*dx + dy*dy)
}
