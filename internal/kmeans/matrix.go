package kmeans

import (
	"gonum.org/v1/gonum/mat"
)

// NewMatrix copies rows into a contiguous len(rows)×d matrix.
// Every row must have exactly d elements.
func NewMatrix(rows [][]float64, d int) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, invalidf("no rows")
	}
	if d < 1 {
		return nil, invalidf("d must be positive, got %d", d)
	}
	if err := checkCells(len(rows), d, 0); err != nil {
		return nil, err
	}
	data := make([]float64, 0, len(rows)*d)
	for i, row := range rows {
		if len(row) != d {
			return nil, invalidf("row %d has %d elements, want %d", i, len(row), d)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), d, data), nil
}

// Rows copies m into a slice of independent rows.
func Rows(m *mat.Dense) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		copy(out[i], m.RawRowView(i))
	}
	return out
}

// Flatten returns m in row-major order (row index major, column index minor).
func Flatten(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, m.RawRowView(i)...)
	}
	return out
}
