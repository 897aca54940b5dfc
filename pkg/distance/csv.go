package distance

import (
	"bufio"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// WriteCSV writes m one row per line with every cell followed by a comma,
// the layout matrix.Parse reads back.
func WriteCSV(w io.Writer, m mat.Matrix) error {
	bw := bufio.NewWriter(w)
	rows, cols := m.Dims()
	buf := make([]byte, 0, 32)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			buf = strconv.AppendFloat(buf[:0], m.At(i, j), 'g', -1, 64)
			buf = append(buf, ',')
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
