package visualization

import "math"

// normalizePositions scales positions to fit within bounds
func normalizePositions(positions map[int]Position, width, height, padding float64) map[int]Position {
	if len(positions) == 0 {
		return positions
	}

	// Find bounds
	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	minY, maxY := math.MaxFloat64, -math.MaxFloat64

	for _, pos := range positions {
		minX = math.Min(minX, pos.X)
		maxX = math.Max(maxX, pos.X)
		minY = math.Min(minY, pos.Y)
		maxY = math.Max(maxY, pos.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY

	// A collapsed axis is centred rather than stretched
	offsetX, offsetY := 0.0, 0.0
	targetWidth := width - 2*padding
	targetHeight := height - 2*padding
	if rangeX < 1e-12 {
		rangeX = 1
		offsetX = targetWidth / 2
	}
	if rangeY < 1e-12 {
		rangeY = 1
		offsetY = targetHeight / 2
	}

	normalized := make(map[int]Position, len(positions))
	for idx, pos := range positions {
		normalized[idx] = Position{
			X: padding + offsetX + ((pos.X-minX)/rangeX)*targetWidth,
			Y: padding + offsetY + ((pos.Y-minY)/rangeY)*targetHeight,
		}
	}

	return normalized
}

func withDefaults(config *LayoutConfig) *LayoutConfig {
	if config == nil {
		config = &LayoutConfig{}
	}
	if config.Width == 0 {
		config.Width = 800
	}
	if config.Height == 0 {
		config.Height = 600
	}
	if config.Padding == 0 {
		config.Padding = 50
	}
	return config
}
