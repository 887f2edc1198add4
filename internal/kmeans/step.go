package kmeans

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// workspace holds the per-run buffers. It is built fresh for every Fit call.
type workspace struct {
	labels  []int   // point index -> cluster index
	sizes   []int   // cluster index -> member count
	members [][]int // cluster index -> member point indices
	next    *mat.Dense
}

func newWorkspace(n, k, d int) *workspace {
	w := &workspace{
		labels:  make([]int, n),
		sizes:   make([]int, k),
		members: make([][]int, k),
		next:    mat.NewDense(k, d, nil),
	}
	for c := range w.members {
		w.members[c] = make([]int, 0, n/k+1)
	}
	return w
}

func (w *workspace) reset() {
	for c := range w.sizes {
		w.sizes[c] = 0
		w.members[c] = w.members[c][:0]
	}
}

// nearest returns the index of the closest centroid to p. Only a strictly
// smaller distance replaces the running minimum, so ties go to the lowest index.
func nearest(p []float64, centroids *mat.Dense) int {
	k, _ := centroids.Dims()
	best := 0
	minDist := Distance(p, centroids.RawRowView(0))
	for c := 1; c < k; c++ {
		if dist := Distance(p, centroids.RawRowView(c)); dist < minDist {
			minDist = dist
			best = c
		}
	}
	return best
}

// assign labels every point with its nearest centroid and groups point indices by cluster.
func (w *workspace) assign(data, centroids *mat.Dense) {
	n, _ := data.Dims()
	for i := 0; i < n; i++ {
		c := nearest(data.RawRowView(i), centroids)
		w.labels[i] = c
		w.members[c] = append(w.members[c], i)
		w.sizes[c]++
	}
}

// update writes the candidate centroids into w.next. An empty cluster keeps
// its current centroid.
func (w *workspace) update(data, centroids *mat.Dense) {
	for c, idx := range w.members {
		row := w.next.RawRowView(c)
		if w.sizes[c] == 0 {
			copy(row, centroids.RawRowView(c))
			continue
		}
		for j := range row {
			row[j] = 0
		}
		for _, i := range idx {
			floats.Add(row, data.RawRowView(i))
		}
		size := float64(w.sizes[c])
		for j := range row {
			row[j] /= size
		}
	}
}

// converged reports whether no centroid moved farther than eps.
func converged(current, next *mat.Dense, eps float64) bool {
	k, _ := current.Dims()
	for c := 0; c < k; c++ {
		if Distance(next.RawRowView(c), current.RawRowView(c)) > eps {
			return false
		}
	}
	return true
}

// Labels returns the nearest-centroid index of every row of data.
func Labels(data, centroids *mat.Dense) []int {
	n, _ := data.Dims()
	labels := make([]int, n)
	for i := range labels {
		labels[i] = nearest(data.RawRowView(i), centroids)
	}
	return labels
}
