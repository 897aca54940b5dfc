package visualization

import (
	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Heatmap reorders the rows and columns of the square matrix m by order (for
// example dendrogram leaf order) and rescales the cells linearly to [0, 1].
// A constant matrix maps to all zeros.
func Heatmap(m mat.Matrix, order []int) (*mat.Dense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, gerrors.New("Heatmap").Entity("matrix").Validation("matrix is %dx%d, not square", r, c)
	}
	if order == nil {
		order = make([]int, r)
		for i := range order {
			order[i] = i
		}
	}
	if len(order) != r {
		return nil, gerrors.New("Heatmap").Validation("order has %d entries for %d rows", len(order), r)
	}
	seen := make([]bool, r)
	for _, o := range order {
		if o < 0 || o >= r || seen[o] {
			return nil, gerrors.New("Heatmap").Validation("order is not a permutation of 0..%d", r-1)
		}
		seen[o] = true
	}
	if r == 0 {
		return &mat.Dense{}, nil
	}

	cells := make([]float64, r*r)
	for i, oi := range order {
		for j, oj := range order {
			cells[i*r+j] = m.At(oi, oj)
		}
	}
	lo, hi := floats.Min(cells), floats.Max(cells)
	if span := hi - lo; span > 0 {
		floats.AddConst(-lo, cells)
		floats.Scale(1/span, cells)
	} else {
		for i := range cells {
			cells[i] = 0
		}
	}
	return mat.NewDense(r, r, cells), nil
}
