// Package visualization turns generated networks and clustering results into
// plain drawing data: node positions, dendrogram segments and heatmap cells.
// Rendering is left to the caller.
package visualization

import (
	"encoding/json"
	"fmt"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/layer"
)

// NewGraph holds the node sets of one network build. Nodes are numbered by
// slot: the nodes of the first set, then those of the second, and so on.
// Links and layout positions refer to these slots.
func NewGraph(sets ...[]geometry.Node) *Graph {
	g := &Graph{slots: make(map[endpoint]int)}
	for side, nodes := range sets {
		for _, n := range nodes {
			g.slots[endpoint{side, n.Index}] = len(g.Nodes)
			g.Nodes = append(g.Nodes, n)
			g.sides = append(g.sides, side)
		}
	}
	return g
}

// Connect links record fromIndex of set fromSide to record toIndex of set
// toSide. It reports false, adding nothing, when either record is not a node
// of the graph.
func (g *Graph) Connect(fromSide, fromIndex, toSide, toIndex int, weight float64) bool {
	from, ok1 := g.slots[endpoint{fromSide, fromIndex}]
	to, ok2 := g.slots[endpoint{toSide, toIndex}]
	if !ok1 || !ok2 {
		return false
	}
	g.Links = append(g.Links, Link{From: from, To: to, Weight: weight})
	return true
}

// EdgeWeight is the link weight of a generated edge: its weight attribute,
// else its length, else 1.
func EdgeWeight(e layer.Edge) float64 {
	if v, ok := floatAttr(e.Attrs["weight"]); ok {
		return v
	}
	if v, ok := floatAttr(e.Attrs["length"]); ok {
		return v
	}
	return 1
}

func floatAttr(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// ExportJSON exports the visualization to JSON
func (v *Visualization) ExportJSON() ([]byte, error) {
	type NodeViz struct {
		ID         int               `json:"id"`
		Side       int               `json:"side"`
		Index      int               `json:"index"`
		Key        string            `json:"key"`
		Properties map[string]string `json:"properties"`
		X          float64           `json:"x"`
		Y          float64           `json:"y"`
	}

	type VizData struct {
		Nodes []NodeViz `json:"nodes"`
		Edges []Link    `json:"edges"`
	}

	data := VizData{Edges: []Link{}}
	if v.Graph == nil {
		data.Nodes = []NodeViz{}
		return json.Marshal(data)
	}

	data.Nodes = make([]NodeViz, 0, len(v.Graph.Nodes))
	for slot, node := range v.Graph.Nodes {
		pos := v.Positions[slot]
		props := make(map[string]string, len(node.Attrs))
		for key, val := range node.Attrs {
			if val != nil {
				props[key] = fmt.Sprintf("%v", val)
			}
		}
		data.Nodes = append(data.Nodes, NodeViz{
			ID:         slot,
			Side:       v.Graph.side(slot),
			Index:      node.Index,
			Key:        geometry.KeyString(node.Key),
			Properties: props,
			X:          pos.X,
			Y:          pos.Y,
		})
	}
	data.Edges = append(data.Edges, v.Graph.Links...)

	return json.Marshal(data)
}
