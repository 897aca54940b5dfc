package visualization

// GeographicLayout places nodes at their map coordinates, scaled to the
// canvas with north up.
type GeographicLayout struct {
	config *LayoutConfig
}

// NewGeographicLayout creates a new geographic layout
func NewGeographicLayout(config *LayoutConfig) *GeographicLayout {
	return &GeographicLayout{config: withDefaults(config)}
}

// ComputeLayout maps node coordinates onto the canvas
func (gl *GeographicLayout) ComputeLayout(g *Graph) (map[int]Position, error) {
	positions := make(map[int]Position)
	if g == nil {
		return positions, nil
	}
	for i, node := range g.Nodes {
		// canvas Y grows downwards
		positions[i] = Position{X: node.Point[0], Y: -node.Point[1]}
	}
	return normalizePositions(positions, gl.config.Width, gl.config.Height, gl.config.Padding), nil
}
