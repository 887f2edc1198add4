package kmeans

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitFlat(t *testing.T) {
	centroids := [][]float64{{0}, {10}}
	vectors := [][]float64{{0}, {1}, {10}, {11}}

	got, err := FitFlat(centroids, vectors, 2, 10, 0.0001, 4, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 10.5}, got, 1e-9)

	// Inputs are copied, not mutated.
	assert.Equal(t, [][]float64{{0}, {10}}, centroids)
}

func TestFitFlatEarlyConvergence(t *testing.T) {
	got, err := FitFlat([][]float64{{0}, {10}}, [][]float64{{0}, {0}, {10}, {10}}, 2, 5, 100.0, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 10}, got)
}

func TestFitFlatRowMajor(t *testing.T) {
	centroids := [][]float64{{0, 0}, {10, 20}}
	vectors := [][]float64{{0, 0}, {2, 2}, {10, 20}, {12, 22}}

	got, err := FitFlat(centroids, vectors, 2, 10, 1e-6, 4, 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1, 11, 21}, got, 1e-9)
}

func TestFitFlatValidation(t *testing.T) {
	one := [][]float64{{0}}
	two := [][]float64{{0}, {1}}

	tests := []struct {
		name      string
		centroids [][]float64
		vectors   [][]float64
		k, iter   int
		eps       float64
		n, d      int
	}{
		{"k exceeds n", [][]float64{{0}, {1}, {2}}, two, 3, 10, 0, 2, 1},
		{"zero k", nil, two, 0, 10, 0, 2, 1},
		{"zero d", one, one, 1, 10, 0, 1, 0},
		{"zero n", one, nil, 1, 10, 0, 0, 1},
		{"zero iter", one, two, 1, 0, 0, 2, 1},
		{"negative eps", one, two, 1, 10, -1, 2, 1},
		{"nan eps", one, two, 1, 10, math.NaN(), 2, 1},
		{"centroid count", two, two, 1, 10, 0, 2, 1},
		{"vector count", one, two, 1, 10, 0, 3, 1},
		{"ragged vector", one, [][]float64{{0}, {1, 2}}, 1, 10, 0, 2, 1},
		{"ragged centroid", [][]float64{{0, 1}}, two, 1, 10, 0, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitFlat(tt.centroids, tt.vectors, tt.k, tt.iter, tt.eps, tt.n, tt.d)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestFitFlatAllocationBudget(t *testing.T) {
	_, err := FitFlat([][]float64{{0}}, [][]float64{{0}, {1}, {2}, {3}}, 1, 10, 0, 4, 1, WithMaxCells(3))
	assert.ErrorIs(t, err, ErrAllocation)
}

func TestCheckCellsOverflow(t *testing.T) {
	assert.ErrorIs(t, checkCells(math.MaxInt, 2, 0), ErrAllocation)
	assert.NoError(t, checkCells(1<<20, 1<<10, 0))
}

func TestNewMatrixRejectsEmpty(t *testing.T) {
	_, err := NewMatrix(nil, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
