package kmeans

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Distance([]float64{0, 0}, []float64{3, 4}), 1e-12)
	assert.Equal(t, 0.0, Distance([]float64{1.5, -2}, []float64{1.5, -2}))
	assert.InDelta(t, math.Sqrt(3), Distance([]float64{1, 1, 1}, []float64{0, 0, 0}), 1e-12)
}

func TestAssignBreaksTiesTowardLowestIndex(t *testing.T) {
	data := matrix(t, [][]float64{{5}, {10}})
	centroids := matrix(t, [][]float64{{0}, {10}, {10}})

	w := newWorkspace(2, 3, 1)
	w.assign(data, centroids)

	// {5} is equidistant from 0 and 10; {10} is equidistant from 1 and 2.
	assert.Equal(t, []int{0, 1}, w.labels)
	assert.Equal(t, []int{1, 1, 0}, w.sizes)
	assert.Equal(t, [][]int{{0}, {1}, {}}, w.members)
}

func TestUpdateComputesMeans(t *testing.T) {
	data := matrix(t, [][]float64{{1, 2}, {3, 4}, {5, 9}, {7, 7}})
	centroids := matrix(t, [][]float64{{0, 0}, {6, 8}, {100, 100}})

	w := newWorkspace(4, 3, 2)
	w.assign(data, centroids)
	w.update(data, centroids)

	assert.Equal(t, []int{0, 0, 1, 1}, w.labels)
	assertRows(t, [][]float64{{2, 3}, {6, 8}, {100, 100}}, w.next)
	// Candidates are not committed by update.
	assertRows(t, [][]float64{{0, 0}, {6, 8}, {100, 100}}, centroids)
}

func TestWorkspaceReset(t *testing.T) {
	data := matrix(t, [][]float64{{0}, {1}})
	centroids := matrix(t, [][]float64{{0}})

	w := newWorkspace(2, 1, 1)
	w.assign(data, centroids)
	w.reset()
	w.assign(data, centroids)
	assert.Equal(t, []int{2}, w.sizes)
	assert.Equal(t, [][]int{{0, 1}}, w.members)
}

func TestConverged(t *testing.T) {
	a := matrix(t, [][]float64{{0, 0}, {1, 1}})
	b := matrix(t, [][]float64{{0, 0.5}, {1, 1}})

	assert.True(t, converged(a, b, 0.5))
	assert.False(t, converged(a, b, 0.49))
	assert.True(t, converged(a, a, 0))
}

func TestLabels(t *testing.T) {
	data := matrix(t, [][]float64{{0}, {4}, {6}, {10}})
	centroids := matrix(t, [][]float64{{0}, {10}})
	assert.Equal(t, []int{0, 0, 1, 1}, Labels(data, centroids))
}
