// Package geometry is the toolkit's geometry adapter: it holds vector datasets
// in memory (features with orb geometries and typed attribute fields) and
// exposes the few primitives the analysis packages need, namely point reads,
// polygon extents and containment, segment length, and attribute updates.
//
// Datasets are loaded from and saved to GeoJSON through paulmach/orb. No
// projection handling is done; coordinates are used as given.
package geometry
