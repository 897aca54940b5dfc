package visualization

import (
	"github.com/dd0wney/cluso-geonet/pkg/geometry"
)

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutConfig configures layout parameters
type LayoutConfig struct {
	Width      float64 // Canvas width
	Height     float64 // Canvas height
	Iterations int     // Number of iterations for iterative algorithms
	Padding    float64 // Padding from edges
	Seed       int64   // Seed for randomized initial positions
}

// Layout computes canvas positions keyed by graph slot
type Layout interface {
	ComputeLayout(g *Graph) (map[int]Position, error)
}

// Link is one generated edge between two graph slots
type Link struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight"`
}

// Graph is the node sets of one build with the links generated between them
type Graph struct {
	Nodes []geometry.Node
	Links []Link

	sides []int // per slot, nil when built by hand
	slots map[endpoint]int
}

type endpoint struct{ side, index int }

func (g *Graph) side(slot int) int {
	if slot < len(g.sides) {
		return g.sides[slot]
	}
	return 0
}

// Visualization represents a network visualization with layout
type Visualization struct {
	Graph     *Graph
	Positions map[int]Position
}
