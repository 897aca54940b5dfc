// Package spatialindex prunes point-in-polygon tests with a coarse bucket
// index: polygons are filed into overlapping strips along X and along Y, and
// a point is only tested against polygons found in both of its strips.
package spatialindex

import (
	"math"
	"sort"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/paulmach/orb"
)

// BucketIndex is a pair of 1D strip indexes over polygon extents.
type BucketIndex struct {
	min          orb.Point
	cellW, cellH float64
	xBuckets     []map[int]struct{}
	yBuckets     []map[int]struct{}
	polygons     []geometry.Polygon
}

// Build indexes polygons. The cell size on each axis is the mean extent of the
// polygons on that axis; empty polygons are left out of both the mean and the
// index. When every polygon is degenerate on an axis that axis gets a single
// bucket.
func Build(polygons []geometry.Polygon) *BucketIndex {
	idx := &BucketIndex{polygons: polygons}

	var total orb.Bound
	sumW, sumH := 0.0, 0.0
	n := 0
	for _, p := range polygons {
		if p.Empty() {
			continue
		}
		ext := p.Extent()
		if n == 0 {
			total = ext
		} else {
			total = total.Union(ext)
		}
		sumW += ext.Max[0] - ext.Min[0]
		sumH += ext.Max[1] - ext.Min[1]
		n++
	}
	if n == 0 {
		return idx
	}

	idx.min = total.Min
	idx.cellW = cellSize(sumW / float64(n))
	idx.cellH = cellSize(sumH / float64(n))
	idx.xBuckets = newBuckets(total.Max[0]-total.Min[0], idx.cellW)
	idx.yBuckets = newBuckets(total.Max[1]-total.Min[1], idx.cellH)

	for i, p := range polygons {
		if p.Empty() {
			continue
		}
		ext := p.Extent()
		fill(idx.xBuckets, bucketOf(ext.Min[0], idx.min[0], idx.cellW), bucketOf(ext.Max[0], idx.min[0], idx.cellW), i)
		fill(idx.yBuckets, bucketOf(ext.Min[1], idx.min[1], idx.cellH), bucketOf(ext.Max[1], idx.min[1], idx.cellH), i)
	}
	return idx
}

func cellSize(mean float64) float64 {
	if mean <= 0 || math.IsNaN(mean) {
		return math.Inf(1)
	}
	return mean
}

func newBuckets(span, cell float64) []map[int]struct{} {
	count := int(math.Ceil(span/cell)) + 1
	buckets := make([]map[int]struct{}, count)
	for i := range buckets {
		buckets[i] = make(map[int]struct{})
	}
	return buckets
}

func bucketOf(coord, min, cell float64) int {
	return int(math.Ceil((coord - min) / cell))
}

func fill(buckets []map[int]struct{}, from, to, polygon int) {
	for b := max(from, 0); b <= to && b < len(buckets); b++ {
		buckets[b][polygon] = struct{}{}
	}
}

// Shape returns the number of buckets along X and Y.
func (idx *BucketIndex) Shape() (int, int) {
	return len(idx.xBuckets), len(idx.yBuckets)
}

// Candidates returns the polygons filed in both the X and the Y bucket of pt,
// in ascending order. ok is false when pt falls outside the bucket range, in
// which case the point cannot be matched to any polygon.
func (idx *BucketIndex) Candidates(pt orb.Point) (candidates []int, ok bool) {
	if len(idx.xBuckets) == 0 {
		return nil, false
	}
	xi := bucketOf(pt[0], idx.min[0], idx.cellW)
	yi := bucketOf(pt[1], idx.min[1], idx.cellH)
	if xi < 0 || xi >= len(idx.xBuckets) || yi < 0 || yi >= len(idx.yBuckets) {
		return nil, false
	}

	xs, ys := idx.xBuckets[xi], idx.yBuckets[yi]
	if len(ys) < len(xs) {
		xs, ys = ys, xs
	}
	for p := range xs {
		if _, hit := ys[p]; hit {
			candidates = append(candidates, p)
		}
	}
	sort.Ints(candidates)
	return candidates, true
}

// Containing returns the indexed polygons that contain pt exactly.
func (idx *BucketIndex) Containing(pt orb.Point) []int {
	candidates, _ := idx.Candidates(pt)
	var out []int
	for _, c := range candidates {
		if idx.polygons[c].Contains(pt) {
			out = append(out, c)
		}
	}
	return out
}
