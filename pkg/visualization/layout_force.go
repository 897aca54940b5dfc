package visualization

import (
	"math"
	"math/rand"
)

// ForceDirectedLayout implements force-directed graph layout
type ForceDirectedLayout struct {
	config *LayoutConfig
}

// NewForceDirectedLayout creates a new force-directed layout
func NewForceDirectedLayout(config *LayoutConfig) *ForceDirectedLayout {
	config = withDefaults(config)
	if config.Iterations == 0 {
		config.Iterations = 50
	}
	return &ForceDirectedLayout{config: config}
}

// ComputeLayout computes positions using force-directed algorithm
func (fdl *ForceDirectedLayout) ComputeLayout(g *Graph) (map[int]Position, error) {
	if g == nil || len(g.Nodes) == 0 {
		return make(map[int]Position), nil
	}

	// Single node - center it
	if len(g.Nodes) == 1 {
		return map[int]Position{
			0: {
				X: fdl.config.Width / 2,
				Y: fdl.config.Height / 2,
			},
		}, nil
	}

	ids := make([]int, len(g.Nodes))
	for i := range ids {
		ids[i] = i
	}

	// Initialize seeded random positions
	rng := rand.New(rand.NewSource(fdl.config.Seed))
	positions := make(map[int]Position, len(ids))
	for _, id := range ids {
		positions[id] = Position{
			X: rng.Float64()*(fdl.config.Width-2*fdl.config.Padding) + fdl.config.Padding,
			Y: rng.Float64()*(fdl.config.Height-2*fdl.config.Padding) + fdl.config.Padding,
		}
	}

	// Links are treated as undirected for attraction
	neighbours := make(map[int]map[int]bool, len(ids))
	for _, id := range ids {
		neighbours[id] = make(map[int]bool)
	}
	for _, l := range g.Links {
		if l.From == l.To {
			continue
		}
		if _, ok := neighbours[l.From]; !ok {
			continue
		}
		if _, ok := neighbours[l.To]; !ok {
			continue
		}
		neighbours[l.From][l.To] = true
		neighbours[l.To][l.From] = true
	}

	k := math.Sqrt((fdl.config.Width * fdl.config.Height) / float64(len(ids))) // Optimal distance
	temperature := fdl.config.Width / 10.0

	for iter := 0; iter < fdl.config.Iterations; iter++ {
		forces := make(map[int]Position, len(ids))

		// Repulsion between all nodes
		for i, id1 := range ids {
			for _, id2 := range ids[i+1:] {
				dx := positions[id1].X - positions[id2].X
				dy := positions[id1].Y - positions[id2].Y
				dist := math.Max(math.Sqrt(dx*dx+dy*dy), 0.01)

				force := (k * k) / dist
				fx := (dx / dist) * force
				fy := (dy / dist) * force

				forces[id1] = Position{X: forces[id1].X + fx, Y: forces[id1].Y + fy}
				forces[id2] = Position{X: forces[id2].X - fx, Y: forces[id2].Y - fy}
			}
		}

		// Attraction between linked nodes
		for _, id1 := range ids {
			for id2 := range neighbours[id1] {
				dx := positions[id1].X - positions[id2].X
				dy := positions[id1].Y - positions[id2].Y
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < 0.01 {
					continue
				}

				force := (dist * dist) / k
				forces[id1] = Position{
					X: forces[id1].X - (dx/dist)*force,
					Y: forces[id1].Y - (dy/dist)*force,
				}
			}
		}

		// Apply forces with cooling
		cool := 1.0 - float64(iter)/float64(fdl.config.Iterations)
		for _, id := range ids {
			fx, fy := forces[id].X, forces[id].Y
			force := math.Sqrt(fx*fx + fy*fy)
			if force > 0 {
				step := math.Min(force, temperature) * cool
				positions[id] = Position{
					X: positions[id].X + (fx/force)*step,
					Y: positions[id].Y + (fy/force)*step,
				}
			}
		}

		temperature *= 0.95
	}

	return normalizePositions(positions, fdl.config.Width, fdl.config.Height, fdl.config.Padding), nil
}
