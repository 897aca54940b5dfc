// Package matrix holds the square adjacency matrices that drive
// adjacency-mode network generation, loaded from comma-delimited text or
// built from in-memory rows.
package matrix

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"golang.org/x/exp/mmap"
	"gonum.org/v1/gonum/mat"
)

// maxLineBytes bounds a single matrix row in text form.
const maxLineBytes = 64 << 20

// Adjacency is a square matrix of edge weights between node groups.
// Row and column i both address the nodes a criterion selects for index i.
type Adjacency struct {
	m *mat.Dense // nil when the matrix is empty
	n int
}

// FromRows copies a 2D slice into an adjacency matrix. Rows must all have the
// same length as the number of rows.
func FromRows(rows [][]float64) (*Adjacency, error) {
	n := len(rows)
	if n == 0 {
		return &Adjacency{}, nil
	}
	data := make([]float64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, gerrors.New("FromRows").Entity("matrix").
				Validation("row %d has %d cells, want %d for a square matrix", i, len(row), n)
		}
		data = append(data, row...)
	}
	return &Adjacency{m: mat.NewDense(n, n, data), n: n}, nil
}

// Identity returns the n×n identity matrix, linking every group to itself.
func Identity(n int) *Adjacency {
	if n <= 0 {
		return &Adjacency{}
	}
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, 1)
	}
	return &Adjacency{m: d, n: n}
}

// Parse reads one row per line with comma-separated numeric cells. Blank lines
// and a single trailing empty cell per row (as left by writers that end every
// cell with a comma) are ignored.
func Parse(r io.Reader) (*Adjacency, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var rows [][]float64
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		cells := strings.Split(text, ",")
		if cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		row := make([]float64, len(cells))
		for j, cell := range cells {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, gerrors.New("Parse").Entity("matrix").
					Validation("line %d cell %d: %q is not a number", line, j+1, cell)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, gerrors.New("Parse").Entity("matrix").Cause(err).Err()
	}
	return FromRows(rows)
}

// LoadFile memory-maps a matrix text file and parses it.
func LoadFile(path string) (*Adjacency, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, gerrors.New("LoadFile").Entity("matrix").Context("open %s", path).Cause(err).Err()
	}
	defer r.Close()
	return Parse(io.NewSectionReader(r, 0, int64(r.Len())))
}

// Size returns the number of rows (equal to the number of columns).
func (a *Adjacency) Size() int {
	return a.n
}

// Row returns a copy of row i. The builder scans a row at a time.
func (a *Adjacency) Row(i int) []float64 {
	return mat.Row(nil, i, a.m)
}
