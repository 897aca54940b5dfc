// Package binning splits a numeric sequence into contiguous rank bins whose
// sizes follow a geometric progression, for choropleth classification.
package binning

import (
	"math"
	"sort"

	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
)

// Range is the half-open interval [Low, High). A nil High is unbounded.
type Range struct {
	Low  float64
	High *float64
}

// Contains reports whether x falls in the range.
func (r Range) Contains(x float64) bool {
	return x >= r.Low && (r.High == nil || x < *r.High)
}

// GeometricRank sorts seq and cuts it into ngroup contiguous bins. Bin i
// holds a share of the elements proportional to ratio^(ngroup-i); bin
// boundaries sit at rank ceil(share*len) and the last bin is open above.
// A bin that rounds to no elements is an error: pick a ratio closer to 1 or
// fewer groups.
func GeometricRank(seq []float64, ngroup int, ratio float64) ([]Range, error) {
	const op = "GeometricRank"
	if ngroup < 1 {
		return nil, gerrors.New(op).Field("ngroup").Validation("must be at least 1, got %d", ngroup)
	}
	if len(seq) == 0 {
		return nil, gerrors.New(op).Validation("empty sequence")
	}
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return nil, gerrors.New(op).Field("ratio").Validation("must be a positive number, got %g", ratio)
	}

	sorted := append([]float64(nil), seq...)
	sort.Float64s(sorted)
	n := float64(len(sorted))

	total := 0.0
	for i := 0; i < ngroup; i++ {
		total += math.Pow(ratio, float64(i+1))
	}

	bounds := make([][2]int, ngroup)
	tick := 0.0
	for i := 0; i < ngroup; i++ {
		lo := min(int(math.Ceil(tick*n)), len(sorted))
		tick += math.Pow(ratio, float64(ngroup-i)) / total
		hi := min(int(math.Ceil(tick*n)), len(sorted))
		if lo == hi {
			return nil, gerrors.New(op).Validation("group %d would be empty; use a ratio closer to 1 or fewer groups", i)
		}
		bounds[i] = [2]int{lo, hi}
	}

	ranges := make([]Range, ngroup)
	for i, b := range bounds {
		ranges[i].Low = sorted[b[0]]
		if i < ngroup-1 {
			high := sorted[b[1]]
			ranges[i].High = &high
		}
	}
	return ranges, nil
}

// Classifier returns a function mapping a value to the index of the first
// GeometricRank bin containing it. ok is false for values below the first bin
// or in no bin at all.
func Classifier(seq []float64, ngroup int, ratio float64) (func(x float64) (int, bool), error) {
	ranges, err := GeometricRank(seq, ngroup, ratio)
	if err != nil {
		return nil, err
	}
	return func(x float64) (int, bool) {
		for i, r := range ranges {
			if r.Contains(x) {
				return i, true
			}
		}
		return 0, false
	}, nil
}
